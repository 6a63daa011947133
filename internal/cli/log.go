// Package cli implements the blockmat command-line interface.
//
// Every command runs in its own process: load writes pages and a manifest to
// the page store, and later commands reattach the matrix from that manifest.
//
// # Commands
//
//   - load: blockify DataDir/<name>.csv, or import another file with --file
//   - print: show the top-left window of a matrix
//   - transpose: transpose a matrix in place
//   - export: write a matrix back to DataDir/<name>.csv
//   - unload: delete every page of a matrix
//   - stats: show the layout of a matrix
//   - list: list matrices with pages in the store
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The
// charmbracelet logger is carried in context.Context and also serves as the
// slog handler of the library.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Transposed A (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
