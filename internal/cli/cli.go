package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/hupe1980/blockmat"
)

const appName = "blockmat"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var version = "dev"

// SetVersion sets the version shown by --version.
func SetVersion(v string) { version = v }

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer
	In     io.Reader

	configPath  string
	dataDir     string
	tempDir     string
	blockSizeKB int
	threshold   float64
	printCount  int
	storeKind   string
	showMetrics bool

	registry *prometheus.Registry
}

// New creates a new CLI instance logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		In:     os.Stdin,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "blockmat stores square integer matrices as pages and transposes them in place",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !c.showMetrics || c.registry == nil {
				return nil
			}
			return c.writeMetrics(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "TOML config file (default ./"+defaultConfigFile+" if present)")
	pf.StringVar(&c.dataDir, "data-dir", "", "directory of canonical <name>.csv files")
	pf.StringVar(&c.tempDir, "temp-dir", "", "directory of scratch pages")
	pf.IntVar(&c.blockSizeKB, "block-size-kb", 0, "page size in KiB")
	pf.Float64Var(&c.threshold, "sparse-threshold", 0, "zero fraction at which a matrix is stored sparse")
	pf.IntVar(&c.printCount, "print-count", 0, "rows and columns shown by print")
	pf.StringVar(&c.storeKind, "store", "", "page store: local, s3, minio or badger")
	pf.BoolVar(&c.showMetrics, "metrics", false, "write Prometheus metrics to stderr after the command")

	root.AddCommand(c.loadCommand())
	root.AddCommand(c.printCommand())
	root.AddCommand(c.transposeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.unloadCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.listCommand())

	return root
}

// config resolves the file configuration and applies flag overrides.
func (c *CLI) config(cmd *cobra.Command) (FileConfig, error) {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Matrix.DataDir = c.dataDir
	}
	if flags.Changed("temp-dir") {
		cfg.Matrix.TempDir = c.tempDir
	}
	if flags.Changed("block-size-kb") {
		cfg.Matrix.BlockSizeKB = c.blockSizeKB
	}
	if flags.Changed("sparse-threshold") {
		cfg.Matrix.SparseThreshold = c.threshold
	}
	if flags.Changed("print-count") {
		cfg.Matrix.PrintCount = c.printCount
	}
	if flags.Changed("store") {
		cfg.Store.Kind = c.storeKind
	}
	return cfg, cfg.Matrix.Validate()
}

// openCatalogue builds a catalogue from the resolved configuration. The
// returned function releases the page store and cache clients.
func (c *CLI) openCatalogue(cmd *cobra.Command) (*blockmat.Catalogue, func() error, error) {
	ctx := cmd.Context()
	cfg, err := c.config(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := blockmat.NewLogger(loggerFromContext(ctx))
	closers := []io.Closer{}
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i].Close())
		}
		return errors.Join(errs...)
	}

	store, storeCloser, err := openPageStore(ctx, cfg.Store, logger.Logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, storeCloser)

	c.registry = prometheus.NewRegistry()
	metrics, err := blockmat.NewPrometheusCollector(c.registry)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}

	opts := []blockmat.Option{
		blockmat.WithConfig(cfg.Matrix),
		blockmat.WithLogger(logger),
		blockmat.WithMetricsCollector(metrics),
		blockmat.WithMemoryLimit(cfg.Limits.MemoryBytes),
		blockmat.WithIOLimit(cfg.Limits.IOBytesPerSec),
	}
	if store != nil {
		opts = append(opts, blockmat.WithPageStore(store))
	}

	switch {
	case cfg.Cache.RedisAddr != "":
		ttl, err := cfg.Cache.ttl()
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		ns, err := cfg.Store.cacheNamespace()
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		closers = append(closers, client)
		opts = append(opts, blockmat.WithRedisPageCache(client, ns, ttl, cfg.Cache.ChunkSize))
	case cfg.Cache.Bytes > 0:
		opts = append(opts, blockmat.WithPageCache(cfg.Cache.Bytes, cfg.Cache.ChunkSize))
	}

	cat, err := blockmat.NewCatalogue(opts...)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	return cat, closeAll, nil
}

// withCatalogue runs fn against a freshly opened catalogue and closes it afterwards.
func (c *CLI) withCatalogue(cmd *cobra.Command, fn func(ctx context.Context, cat *blockmat.Catalogue) error) (err error) {
	cat, closeFn, err := c.openCatalogue(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(cmd.Context(), cat)
}

func (c *CLI) writeMetrics(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
