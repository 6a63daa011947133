package blockmat

import (
	"fmt"
	"path/filepath"

	"github.com/hupe1980/blockmat/internal/layout"
)

// Default configuration values.
const (
	DefaultDataDir         = "../data"
	DefaultTempDir         = "../data/temp"
	DefaultBlockSizeKB     = 1
	DefaultSparseThreshold = 0.6
	DefaultPrintCount      = 20
)

// Config is the single configuration point of a catalogue.
type Config struct {
	// DataDir holds canonical sources, one <name>.csv per matrix.
	DataDir string `toml:"data_dir"`
	// TempDir holds scratch pages and imported scratch sources.
	TempDir string `toml:"temp_dir"`
	// BlockSizeKB is the physical page size in KiB.
	BlockSizeKB int `toml:"block_size_kb"`
	// PageBytes overrides BlockSizeKB with an exact page size when positive.
	PageBytes int `toml:"page_bytes"`
	// SparseThreshold is the zero fraction at or above which a matrix is stored sparse.
	SparseThreshold float64 `toml:"sparse_threshold"`
	// PrintCount caps the rows and columns written by Print.
	PrintCount int `toml:"print_count"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:         DefaultDataDir,
		TempDir:         DefaultTempDir,
		BlockSizeKB:     DefaultBlockSizeKB,
		SparseThreshold: DefaultSparseThreshold,
		PrintCount:      DefaultPrintCount,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir is empty", ErrInvalidConfig)
	}
	if c.TempDir == "" {
		return fmt.Errorf("%w: temp dir is empty", ErrInvalidConfig)
	}
	if c.PrintCount <= 0 {
		return fmt.Errorf("%w: print count %d", ErrInvalidConfig, c.PrintCount)
	}
	if err := c.params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) params() layout.Params {
	return layout.Params{
		BlockSizeKB:     c.BlockSizeKB,
		PageBytes:       c.PageBytes,
		SparseThreshold: c.SparseThreshold,
	}
}

// CanonicalPath returns the permanent source location of a matrix.
func (c Config) CanonicalPath(name string) string {
	return filepath.Join(c.DataDir, name+".csv")
}
