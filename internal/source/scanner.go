package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrParse is returned when a token is not a 32-bit integer.
	ErrParse = errors.New("parse failure")

	// ErrShape is returned when a row does not hold the expected number of cells.
	ErrShape = errors.New("row shape mismatch")
)

// ParseError describes a malformed token.
type ParseError struct {
	Row   int
	Col   int
	Token string
	cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure at row %d col %d: %q", e.Row, e.Col, e.Token)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.cause} }

// ShapeError describes a row with the wrong number of cells, or a missing row.
type ShapeError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("row %d: expected %d cells, got %d", e.Row, e.Expected, e.Actual)
}

func (e *ShapeError) Unwrap() error { return ErrShape }

// CountColumns returns the number of comma-separated tokens on the first line.
// It returns 0 if the source has no lines.
func CountColumns(r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return 0, nil
	}
	return strings.Count(line, ",") + 1, nil
}

// Scanner walks an N-column source row by row.
type Scanner struct {
	sc      *bufio.Scanner
	columns int
	row     int
	cells   []string
}

// NewScanner returns a Scanner that expects every row to hold columns cells.
func NewScanner(r io.Reader, columns int) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &Scanner{sc: sc, columns: columns}
}

// Row returns the index of the row the next call to Next will return.
func (s *Scanner) Row() int { return s.row }

// Next parses the next row into dst, which must have room for the configured
// number of columns. It returns io.EOF once the input is exhausted.
func (s *Scanner) Next(dst []int) error {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	line := strings.TrimRight(s.sc.Text(), "\r")
	s.cells = splitInto(s.cells[:0], line)
	if len(s.cells) != s.columns {
		return &ShapeError{Row: s.row, Expected: s.columns, Actual: len(s.cells)}
	}
	for col, tok := range s.cells {
		v, err := ParseCell(tok)
		if err != nil {
			return &ParseError{Row: s.row, Col: col, Token: tok, cause: err}
		}
		dst[col] = v
	}
	s.row++
	return nil
}

// Trailing reports whether any non-blank line follows the current position.
func (s *Scanner) Trailing() (bool, error) {
	for s.sc.Scan() {
		if strings.TrimSpace(s.sc.Text()) != "" {
			return true, nil
		}
	}
	return false, s.sc.Err()
}

// ParseCell parses a single token, ignoring any whitespace inside it.
func ParseCell(tok string) (int, error) {
	tok = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, tok)
	v, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func splitInto(dst []string, line string) []string {
	for {
		i := strings.IndexByte(line, ',')
		if i < 0 {
			return append(dst, line)
		}
		dst = append(dst, line[:i])
		line = line[i+1:]
	}
}
