package blockmat

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockmat/testutil"
)

func TestTranspose_Dense(t *testing.T) {
	tests := []struct {
		name string
		n    int
		page int
	}{
		{"single block", 10, 0},
		{"uneven grid", 40, 0},
		{"exact grid", 32, 0},
		{"tiny pages", 5, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t)
			cfg.PageBytes = tt.page
			cat := newTestCatalogue(t, cfg)
			values := testutil.NewRNG(int64(tt.n)).DenseMatrix(tt.n, -100, 100)
			m := loadValues(t, cat, "A", values)
			require.False(t, m.IsSparse())

			require.NoError(t, m.Transpose(ctx))
			assert.Equal(t, testutil.Transpose(values), readMatrix(t, m))

			require.NoError(t, m.Transpose(ctx))
			assert.Equal(t, values, readMatrix(t, m))
			assert.Zero(t, cat.env.pool.Pinned())
		})
	}
}

func TestTranspose_DenseKeepsShapes(t *testing.T) {
	cat := newTestCatalogue(t, testConfig(t))
	m := loadValues(t, cat, "A", testutil.Sequential(40))
	before := slices.Clone(m.layout.Shapes)

	require.NoError(t, m.Transpose(context.Background()))

	assert.Equal(t, before, m.layout.Shapes)
}

func TestTranspose_Sparse(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		density float64
		page    int
	}{
		{"single block", 20, 0.05, 0},
		{"many blocks", 100, 0.2, 0},
		{"one triplet per page", 12, 0.2, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t)
			cfg.PageBytes = tt.page
			cat := newTestCatalogue(t, cfg)
			values := testutil.NewRNG(int64(tt.n)).SparseMatrix(tt.n, tt.density)
			m := loadValues(t, cat, "S", values)
			require.True(t, m.IsSparse())
			blocks := m.BlockCount()

			require.NoError(t, m.Transpose(ctx))
			assert.Equal(t, testutil.Triplets(testutil.Transpose(values)), triplets(t, m))
			assert.Equal(t, blocks, m.BlockCount())

			require.NoError(t, m.Transpose(ctx))
			assert.Equal(t, testutil.Triplets(values), triplets(t, m))
			assert.Zero(t, cat.env.pool.Pinned())
		})
	}
}

func TestTranspose_SparseOrder(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalogue(t, testConfig(t))
	m := loadValues(t, cat, "S", testutil.NewRNG(3).SparseMatrix(80, 0.25))

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Transpose(ctx))
		got := triplets(t, m)
		for k := 1; k < len(got); k++ {
			prev, cur := got[k-1], got[k]
			less := prev[0] < cur[0] || (prev[0] == cur[0] && prev[1] < cur[1])
			require.True(t, less, "triplet %d %v not after %v", k, cur, prev)
		}
	}
}

func TestTranspose_ScenarioThreeByThree(t *testing.T) {
	for _, pageBytes := range []int{0, 12} {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.PageBytes = pageBytes
		cat := newTestCatalogue(t, cfg)
		m := loadValues(t, cat, "S", [][]int{
			{0, 0, 5},
			{0, 7, 0},
			{9, 0, 0},
		})
		require.True(t, m.IsSparse())

		require.NoError(t, m.Transpose(ctx))

		assert.Equal(t, [][3]int{{0, 2, 9}, {1, 1, 7}, {2, 0, 5}}, triplets(t, m))
	}
}

func TestTranspose_Cancelled(t *testing.T) {
	cat := newTestCatalogue(t, testConfig(t))
	m := loadValues(t, cat, "A", testutil.Sequential(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Transpose(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
