package blockmat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockmat/testutil"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.TempDir = filepath.Join(dir, "temp")
	return cfg
}

func newTestCatalogue(t *testing.T, cfg Config, optFns ...Option) *Catalogue {
	t.Helper()
	opts := append([]Option{WithConfig(cfg), WithLogger(NoopLogger())}, optFns...)
	cat, err := NewCatalogue(opts...)
	require.NoError(t, err)
	return cat
}

// loadValues writes values as the canonical source of name and loads it.
func loadValues(t *testing.T, cat *Catalogue, name string, values [][]int) *Matrix {
	t.Helper()
	testutil.WriteCSV(t, cat.Config().DataDir, name, values)
	m, err := cat.Load(context.Background(), name)
	require.NoError(t, err)
	return m
}

// readMatrix reconstructs the full matrix through a cursor scan.
func readMatrix(t *testing.T, m *Matrix) [][]int {
	t.Helper()
	ctx := context.Background()
	n := m.Size()
	out := make([][]int, n)
	for i := range out {
		out[i] = make([]int, 0, n)
	}

	cur := m.Cursor()
	defer cur.Close()

	if m.IsSparse() {
		for i := range out {
			out[i] = out[i][:n]
		}
		for {
			tr, ok, err := cur.NextTriplet(ctx)
			require.NoError(t, err)
			if !ok {
				break
			}
			out[tr.Row][tr.Col] = tr.Value
		}
		return out
	}

	for r := 0; r < n; r++ {
		for bc := 0; bc < m.BlocksPerRow(); bc++ {
			seg, err := cur.NextSegment(ctx)
			require.NoError(t, err)
			require.NotNil(t, seg, "row %d segment %d", r, bc)
			out[r] = append(out[r], seg...)
		}
	}
	seg, err := cur.NextSegment(ctx)
	require.NoError(t, err)
	require.Nil(t, seg)
	return out
}

// triplets collects every triplet in cursor order.
func triplets(t *testing.T, m *Matrix) [][3]int {
	t.Helper()
	cur := m.Cursor()
	defer cur.Close()
	var out [][3]int
	for {
		v, err := cur.Next(context.Background())
		require.NoError(t, err)
		if v == nil {
			return out
		}
		out = append(out, [3]int{v[0], v[1], v[2]})
	}
}

// redisClient connects to REDIS_ADDR (default localhost:6379) or skips.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
