package page

import (
	"bytes"
	"fmt"
	"strconv"
)

// Dense is a sub-grid of a dense matrix, stored row by row.
type Dense struct {
	rows [][]int
}

// NewDense returns a page over rows. The page takes ownership of the slices.
func NewDense(rows [][]int) *Dense {
	return &Dense{rows: rows}
}

func (d *Dense) Kind() Kind { return KindDense }

func (d *Dense) Len() int { return len(d.rows) }

// Dims returns the occupied rows and columns of the page.
func (d *Dense) Dims() (rows, cols int) {
	if len(d.rows) == 0 {
		return 0, 0
	}
	return len(d.rows), len(d.rows[0])
}

// Row returns row i of the page. The slice aliases page storage.
func (d *Dense) Row(i int) []int {
	return d.rows[i]
}

func (d *Dense) SizeBytes() int64 {
	r, c := d.Dims()
	return int64(r*c) * 8
}

// Transpose replaces the page with its transpose.
// A diagonal block is square, so the page keeps its dimensions.
func (d *Dense) Transpose() {
	d.rows = transposed(d.rows)
}

// TransposeWith exchanges the transposed contents of d and o, so that d holds
// o^T and o holds d^T. It is used for the mirrored block pair (i,j), (j,i).
func (d *Dense) TransposeWith(o *Dense) {
	d.rows, o.rows = transposed(o.rows), transposed(d.rows)
}

func transposed(rows [][]int) [][]int {
	if len(rows) == 0 {
		return rows
	}
	r, c := len(rows), len(rows[0])
	flat := make([]int, r*c)
	out := make([][]int, c)
	for j := range out {
		out[j] = flat[j*r : (j+1)*r : (j+1)*r]
		for i := 0; i < r; i++ {
			out[j][i] = rows[i][j]
		}
	}
	return out
}

// Encode returns the text image of the page.
func (d *Dense) Encode() []byte {
	var buf bytes.Buffer
	for _, row := range d.rows {
		buf.Write(EncodeRow(row))
	}
	return buf.Bytes()
}

// EncodeRow returns one newline-terminated row segment line.
func EncodeRow(row []int) []byte {
	b := make([]byte, 0, len(row)*4+1)
	for i, v := range row {
		if i > 0 {
			b = append(b, ' ')
		}
		b = strconv.AppendInt(b, int64(v), 10)
	}
	return append(b, '\n')
}

// DecodeDense parses a dense page image.
func DecodeDense(data []byte) (*Dense, error) {
	var rows [][]int
	width := -1
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		fields := bytes.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if width >= 0 && len(fields) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrCorrupt, len(rows), len(fields), width)
		}
		width = len(fields)
		row := make([]int, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseInt(string(f), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
			}
			row[j] = int(v)
		}
		rows = append(rows, row)
	}
	return &Dense{rows: rows}, nil
}
