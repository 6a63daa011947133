package blockmat

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hupe1980/blockmat/blobstore"
	"github.com/hupe1980/blockmat/codec"
	"github.com/hupe1980/blockmat/internal/bufferpool"
	"github.com/hupe1980/blockmat/internal/cache"
	"github.com/hupe1980/blockmat/internal/fs"
	"github.com/hupe1980/blockmat/internal/resource"
	"github.com/hupe1980/blockmat/manifest"
	"github.com/redis/go-redis/v9"
)

type options struct {
	config           Config
	logger           *Logger
	metricsCollector MetricsCollector
	pageStore        blobstore.BlobStore
	fileSystem       fs.FileSystem
	codec            codec.Codec
	memoryLimit      int64
	ioLimit          int64
	pageCache        cache.BlockCache
	pageCacheChunk   int64
	redisClient      redis.UniversalClient
	redisNamespace   string
	redisTTL         time.Duration
}

// Option configures a Catalogue or Matrix.
type Option func(*options)

// WithConfig sets the configuration. It is validated when the catalogue is built.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger sets the logger. Pass NoopLogger() to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &blockmat.BasicMetricsCollector{}
//	cat, _ := blockmat.NewCatalogue(blockmat.WithMetricsCollector(metrics))
//	// ... operations ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithPageStore stores pages and manifests in store instead of local files
// under Config.TempDir.
func WithPageStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.pageStore = store
	}
}

// WithFileSystem routes source, canonical file and local page access through fsys.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fileSystem = fsys
		}
	}
}

// WithCodec sets the codec used for new manifests. If nil, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMemoryLimit caps the memory of materialized pages. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles page IO to bytesPerSec. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithPageCache caches page chunks of chunkSize bytes in an in-process LRU of
// capacity bytes. Useful in front of remote page stores.
func WithPageCache(capacity, chunkSize int64) Option {
	return func(o *options) {
		o.pageCache = cache.NewLRUBlockCache(capacity, nil)
		o.pageCacheChunk = chunkSize
		o.redisClient = nil
	}
}

// WithRedisPageCache caches page chunks in Redis, shared between processes.
//
// namespace identifies the page store in the shared Redis: catalogues that
// use the same store must use the same namespace, and different stores must
// not. An empty namespace is derived from Config.TempDir and is only allowed
// with the default local page store.
func WithRedisPageCache(client redis.UniversalClient, namespace string, ttl time.Duration, chunkSize int64) Option {
	return func(o *options) {
		o.pageCache = nil
		o.redisClient = client
		o.redisNamespace = namespace
		o.redisTTL = ttl
		o.pageCacheChunk = chunkSize
	}
}

// env is the shared state of all matrices of a catalogue.
type env struct {
	cfg       Config
	fs        fs.FileSystem
	pool      *bufferpool.Pool
	manifests *manifest.Store
	rc        *resource.Controller
	logger    *Logger
	metrics   MetricsCollector
}

func newEnv(optFns ...Option) (*env, error) {
	o := options{
		config:           DefaultConfig(),
		logger:           NewLogger(nil),
		metricsCollector: NoopMetricsCollector{},
		fileSystem:       fs.Default,
		codec:            codec.Default,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.ioLimit,
	})

	store := o.pageStore
	if store == nil {
		store = blobstore.NewLocalStore(o.config.TempDir, blobstore.WithFileSystem(o.fileSystem))
	}
	if o.redisClient != nil {
		ns := o.redisNamespace
		if ns == "" {
			if o.pageStore != nil {
				return nil, fmt.Errorf("%w: redis page cache needs a namespace for a custom page store", ErrInvalidConfig)
			}
			abs, err := filepath.Abs(o.config.TempDir)
			if err != nil {
				return nil, fmt.Errorf("%w: temp dir: %w", ErrInvalidConfig, err)
			}
			ns = "local:" + abs
		}
		o.pageCache = cache.NewRedisBlockCache(o.redisClient, cache.RedisPrefix(ns), o.redisTTL, o.logger.Logger)
	}
	if o.pageCache != nil {
		store = blobstore.NewCachingStore(store, o.pageCache, o.pageCacheChunk)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: no page store", ErrInvalidConfig)
	}

	pool := bufferpool.New(store,
		bufferpool.WithLogger(o.logger.Logger),
		bufferpool.WithResourceController(rc),
		bufferpool.WithObserver(o.metricsCollector),
	)

	return &env{
		cfg:       o.config,
		fs:        o.fileSystem,
		pool:      pool,
		manifests: manifest.NewStore(store, o.codec),
		rc:        rc,
		logger:    o.logger,
		metrics:   o.metricsCollector,
	}, nil
}
