package blockmat

import (
	"errors"
	"fmt"

	"github.com/hupe1980/blockmat/internal/bufferpool"
	"github.com/hupe1980/blockmat/internal/layout"
	"github.com/hupe1980/blockmat/internal/source"
)

var (
	// ErrEmptySource is returned when a source has no data at all.
	ErrEmptySource = layout.ErrEmptySource

	// ErrNotSquare is returned when a source does not hold N rows of N cells.
	ErrNotSquare = layout.ErrNotSquare

	// ErrParse is returned for non-integer cells. The error is a *ParseError.
	ErrParse = source.ErrParse

	// ErrMissingBlock is returned when a block id beyond the layout is referenced.
	ErrMissingBlock = bufferpool.ErrMissingBlock

	// ErrMatrixExists is returned when loading a name that is already loaded.
	ErrMatrixExists = errors.New("matrix already exists")

	// ErrNoSuchMatrix is returned for operations on a name that is not loaded.
	ErrNoSuchMatrix = errors.New("no such matrix")

	// ErrNotLoaded is returned for operations on a matrix before Load or after Unload.
	ErrNotLoaded = errors.New("matrix not loaded")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
)

// ParseError reports a cell that is not a 32-bit integer.
type ParseError = source.ParseError

// ShapeError reports a row whose cell count differs from the column count.
type ShapeError = source.ShapeError

// MatrixError records a failed operation on a matrix.
//
// The underlying error can be accessed via errors.Unwrap.
type MatrixError struct {
	Op     string
	Matrix string
	cause  error
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Matrix, e.cause)
}

func (e *MatrixError) Unwrap() error { return e.cause }

func wrapErr(op, matrix string, err error) error {
	if err == nil {
		return nil
	}
	var me *MatrixError
	if errors.As(err, &me) {
		return err
	}
	return &MatrixError{Op: op, Matrix: matrix, cause: err}
}
