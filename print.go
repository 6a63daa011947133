package blockmat

import (
	"bufio"
	"context"
	"io"
	"strconv"
)

// Print writes the top-left PrintCount × PrintCount window of the matrix to w
// as ", "-separated rows, followed by a row count footer.
func (m *Matrix) Print(ctx context.Context, w io.Writer) error {
	if err := m.requireLoaded("print"); err != nil {
		return err
	}
	count := min(m.env.cfg.PrintCount, m.layout.Columns)

	bw := bufio.NewWriter(w)
	var err error
	if m.layout.Sparse {
		err = m.writeSparse(ctx, bw, count, ", ")
	} else {
		err = m.writeDense(ctx, bw, count, ", ")
	}
	if err != nil {
		return wrapErr("print", m.name, err)
	}
	bw.WriteString("\n\nRow Count: ")
	bw.WriteString(strconv.Itoa(m.layout.Columns))
	bw.WriteByte('\n')
	return wrapErr("print", m.name, bw.Flush())
}

// writeDense writes the first count rows, each cut to its first count cells.
func (m *Matrix) writeDense(ctx context.Context, w *bufio.Writer, count int, sep string) error {
	cur := m.Cursor()
	defer cur.Close()

	var line []byte
	for r := 0; r < count; r++ {
		line = line[:0]
		col := 0
		for bc := 0; bc < m.layout.BlocksPerRow; bc++ {
			seg, err := cur.NextSegment(ctx)
			if err != nil {
				return err
			}
			for _, v := range seg {
				if col == count {
					break
				}
				if col > 0 {
					line = append(line, sep...)
				}
				line = strconv.AppendInt(line, int64(v), 10)
				col++
			}
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// writeSparse re-densifies the first count rows and columns from the triplet
// stream. Triplets arrive in row-major order.
func (m *Matrix) writeSparse(ctx context.Context, w *bufio.Writer, count int, sep string) error {
	cur := m.Cursor()
	defer cur.Close()

	t, ok, err := cur.NextTriplet(ctx)
	if err != nil {
		return err
	}
	var line []byte
	for r := 0; r < count; r++ {
		line = line[:0]
		for c := 0; c < count; c++ {
			v := 0
			if ok && t.Row == r && t.Col == c {
				v = t.Value
				if t, ok, err = cur.NextTriplet(ctx); err != nil {
					return err
				}
			}
			if c > 0 {
				line = append(line, sep...)
			}
			line = strconv.AppendInt(line, int64(v), 10)
		}
		// Drop the rest of the row outside the window.
		for ok && t.Row == r {
			if t, ok, err = cur.NextTriplet(ctx); err != nil {
				return err
			}
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}
