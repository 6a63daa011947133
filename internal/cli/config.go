package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/blockmat"
	"github.com/hupe1980/blockmat/blobstore"
	"github.com/hupe1980/blockmat/blobstore/badger"
	miniostore "github.com/hupe1980/blockmat/blobstore/minio"
	s3store "github.com/hupe1980/blockmat/blobstore/s3"
	"github.com/hupe1980/blockmat/internal/compress"
)

// defaultConfigFile is read from the working directory when --config is not given.
const defaultConfigFile = "blockmat.toml"

// Page store kinds.
const (
	StoreLocal  = "local"
	StoreS3     = "s3"
	StoreMinIO  = "minio"
	StoreBadger = "badger"
)

// FileConfig is the TOML configuration of the CLI.
//
//	[matrix]
//	data_dir = "../data"
//	block_size_kb = 1
//
//	[store]
//	kind = "minio"
//	endpoint = "localhost:9000"
//	bucket = "pages"
//	compression = "lz4"
type FileConfig struct {
	Matrix blockmat.Config `toml:"matrix"`
	Store  StoreConfig     `toml:"store"`
	Cache  CacheConfig     `toml:"cache"`
	Limits LimitsConfig    `toml:"limits"`
}

// StoreConfig selects the page store.
type StoreConfig struct {
	// Kind is one of local, s3, minio or badger. Empty means local.
	Kind      string `toml:"kind"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Secure    bool   `toml:"secure"`
	// Path is the Badger directory.
	Path string `toml:"path"`
	// Compression is none, lz4 or zstd. Not applied to the local store.
	Compression string `toml:"compression"`
}

// CacheConfig configures the page cache.
type CacheConfig struct {
	// Bytes is the capacity of the in-process LRU. 0 disables it.
	Bytes int64 `toml:"bytes"`
	// ChunkSize is the cache granularity in bytes.
	ChunkSize int64 `toml:"chunk_size"`
	// RedisAddr enables a shared Redis cache instead of the LRU.
	RedisAddr string `toml:"redis_addr"`
	// TTL is a Go duration string such as "10m".
	TTL string `toml:"ttl"`
}

// LimitsConfig bounds page memory and IO.
type LimitsConfig struct {
	MemoryBytes   int64 `toml:"memory_bytes"`
	IOBytesPerSec int64 `toml:"io_bytes_per_sec"`
}

// DefaultFileConfig returns the configuration used when no file is present.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Matrix: blockmat.DefaultConfig(),
		Store:  StoreConfig{Kind: StoreLocal},
		Cache:  CacheConfig{ChunkSize: 4096},
	}
}

// LoadConfig reads path on top of the defaults. An empty path reads
// blockmat.toml if it exists.
func LoadConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ttl parses the cache TTL. An empty TTL means no expiry.
func (c CacheConfig) ttl() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache ttl: %w", err)
	}
	return d, nil
}

// openPageStore builds the configured page store. A nil store selects the
// local default under the temp dir.
func openPageStore(ctx context.Context, sc StoreConfig, logger *slog.Logger) (blobstore.BlobStore, io.Closer, error) {
	var (
		store  blobstore.BlobStore
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(sc.Kind) {
	case "", StoreLocal:
		return nil, closer, nil
	case StoreS3:
		if sc.Bucket == "" {
			return nil, nil, errors.New("s3 store: bucket is required")
		}
		opts := []s3store.Option{s3store.WithPrefix(sc.Prefix)}
		if sc.Region != "" {
			opts = append(opts, s3store.WithRegion(sc.Region))
		}
		s, err := s3store.New(ctx, sc.Bucket, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 store: %w", err)
		}
		store = s
	case StoreMinIO:
		if sc.Endpoint == "" || sc.Bucket == "" {
			return nil, nil, errors.New("minio store: endpoint and bucket are required")
		}
		client, err := minio.New(sc.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(sc.AccessKey, sc.SecretKey, ""),
			Secure: sc.Secure,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("minio store: %w", err)
		}
		store = miniostore.NewStore(client, sc.Bucket, sc.Prefix)
	case StoreBadger:
		cfg := badger.DefaultConfig(sc.Path)
		cfg.KeyPrefix = sc.Prefix
		cfg.Logger = logger
		s, err := badger.Open(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("badger store: %w", err)
		}
		store, closer = s, s
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", sc.Kind)
	}

	algo, err := compress.ParseAlgorithm(sc.Compression)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	if algo != compress.None {
		store = blobstore.NewCompressedStore(store, algo)
	}
	return store, closer, nil
}

// cacheNamespace identifies the page store in a shared Redis cache. The local
// store is left to the library, which derives it from the temp dir.
func (sc StoreConfig) cacheNamespace() (string, error) {
	switch strings.ToLower(sc.Kind) {
	case "", StoreLocal:
		return "", nil
	case StoreS3:
		return "s3:" + sc.Bucket + "/" + sc.Prefix, nil
	case StoreMinIO:
		return "minio:" + sc.Endpoint + "/" + sc.Bucket + "/" + sc.Prefix, nil
	case StoreBadger:
		abs, err := filepath.Abs(sc.Path)
		if err != nil {
			return "", fmt.Errorf("badger store: %w", err)
		}
		return "badger:" + abs + "/" + sc.Prefix, nil
	default:
		return "", fmt.Errorf("unknown store kind %q", sc.Kind)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
