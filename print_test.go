package blockmat

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockmat/testutil"
)

func TestPrint(t *testing.T) {
	tests := []struct {
		name       string
		values     [][]int
		printCount int
		pageBytes  int
		want       string
	}{
		{
			name:       "dense full",
			values:     testutil.Sequential(3),
			printCount: 20,
			want:       "1, 2, 3\n4, 5, 6\n7, 8, 9\n\n\nRow Count: 3\n",
		},
		{
			name:       "dense window",
			values:     testutil.Sequential(3),
			printCount: 2,
			want:       "1, 2\n4, 5\n\n\nRow Count: 3\n",
		},
		{
			name:       "dense window across blocks",
			values:     testutil.Sequential(5),
			printCount: 3,
			pageBytes:  16,
			want:       "1, 2, 3\n6, 7, 8\n11, 12, 13\n\n\nRow Count: 5\n",
		},
		{
			name:       "sparse full",
			values:     [][]int{{0, 0, 5}, {0, 7, 0}, {9, 0, 0}},
			printCount: 20,
			want:       "0, 0, 5\n0, 7, 0\n9, 0, 0\n\n\nRow Count: 3\n",
		},
		{
			name:       "sparse window",
			values:     [][]int{{0, 0, 5}, {0, 7, 0}, {9, 0, 0}},
			printCount: 2,
			want:       "0, 0\n0, 7\n\n\nRow Count: 3\n",
		},
		{
			name:       "sparse across pages",
			values:     [][]int{{0, 0, 5}, {0, 7, 0}, {9, 0, 0}},
			printCount: 2,
			pageBytes:  12,
			want:       "0, 0\n0, 7\n\n\nRow Count: 3\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.PrintCount = tt.printCount
			cfg.PageBytes = tt.pageBytes
			cat := newTestCatalogue(t, cfg)
			m := loadValues(t, cat, "A", tt.values)

			var buf bytes.Buffer
			require.NoError(t, m.Print(context.Background(), &buf))

			assert.Equal(t, tt.want, buf.String())
			assert.Zero(t, cat.env.pool.Pinned())
		})
	}
}

func TestPrint_LargeMatrixIsTruncated(t *testing.T) {
	cat := newTestCatalogue(t, testConfig(t))
	m := loadValues(t, cat, "A", testutil.Sequential(50))

	var buf bytes.Buffer
	require.NoError(t, m.Print(context.Background(), &buf))

	body, footer, ok := strings.Cut(buf.String(), "\n\n\n")
	require.True(t, ok)
	assert.Equal(t, "Row Count: 50\n", footer)
	lines := strings.Split(body, "\n")
	require.Len(t, lines, 20)
	assert.Len(t, strings.Split(lines[0], ", "), 20)
	assert.True(t, strings.HasPrefix(lines[1], "51, 52, "))
}
