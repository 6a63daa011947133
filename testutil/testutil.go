package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// nonZero returns a value in [lo, hi] \ {0}. lo < 0 < hi or lo > 0 is required.
func (r *RNG) nonZero(lo, hi int) int {
	for {
		v := lo + r.rand.Intn(hi-lo+1)
		if v != 0 {
			return v
		}
	}
}

// DenseMatrix returns an n×n matrix of nonzero values in [lo, hi].
func (r *RNG) DenseMatrix(n, lo, hi int) [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
		for j := range m[i] {
			m[i][j] = r.nonZero(lo, hi)
		}
	}
	return m
}

// SparseMatrix returns an n×n matrix where each cell is nonzero with
// probability density. Nonzero values lie in [-1000, 1000].
func (r *RNG) SparseMatrix(n int, density float64) [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
		for j := range m[i] {
			if r.rand.Float64() < density {
				m[i][j] = r.nonZero(-1000, 1000)
			}
		}
	}
	return m
}

// Sequential returns the n×n matrix with cell (i, j) = i·n + j + 1.
func Sequential(n int) [][]int {
	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
		for j := range m[i] {
			m[i][j] = i*n + j + 1
		}
	}
	return m
}

// Transpose returns the transpose of a square matrix.
func Transpose(m [][]int) [][]int {
	t := make([][]int, len(m))
	for i := range t {
		t[i] = make([]int, len(m))
		for j := range t[i] {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// Zeros counts the zero cells of m.
func Zeros(m [][]int) int {
	n := 0
	for _, row := range m {
		for _, v := range row {
			if v == 0 {
				n++
			}
		}
	}
	return n
}

// Triplets returns the nonzero cells of m as [row, col, value] in row-major order.
func Triplets(m [][]int) [][3]int {
	var out [][3]int
	for i, row := range m {
		for j, v := range row {
			if v != 0 {
				out = append(out, [3]int{i, j, v})
			}
		}
	}
	return out
}

// FormatCSV renders m with sep between cells and a newline after every row.
func FormatCSV(m [][]int, sep string) string {
	var sb strings.Builder
	for _, row := range m {
		for j, v := range row {
			if j > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(strconv.Itoa(v))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseCSV parses comma-separated rows, ignoring blank lines.
func ParseCSV(tb testing.TB, s string) [][]int {
	tb.Helper()
	var m [][]int
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, ",")
		row := make([]int, len(cells))
		for j, c := range cells {
			v, err := strconv.Atoi(strings.TrimSpace(c))
			if err != nil {
				tb.Fatalf("parse cell %q: %v", c, err)
			}
			row[j] = v
		}
		m = append(m, row)
	}
	return m
}

// WriteCSV writes m as dir/<name>.csv and returns the path.
func WriteCSV(tb testing.TB, dir, name string, m [][]int) string {
	tb.Helper()
	return WriteFile(tb, dir, name+".csv", FormatCSV(m, ","))
}

// WriteFile writes content to dir/file, creating dir, and returns the path.
func WriteFile(tb testing.TB, dir, file, content string) string {
	tb.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tb.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
