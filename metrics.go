package blockmat

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// PrometheusCollector for a Prometheus implementation.
type MetricsCollector interface {
	// RecordLoad is called after each load. blocks is the number of pages
	// written, err is nil if successful.
	RecordLoad(sparse bool, blocks int, duration time.Duration, err error)

	// RecordTranspose is called after each transpose.
	RecordTranspose(sparse bool, duration time.Duration, err error)

	// RecordExport is called after each makePermanent.
	RecordExport(duration time.Duration, err error)

	// RecordPageIO is called for every page append, write, read and delete.
	RecordPageIO(op string, bytes int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(bool, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordTranspose(bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordExport(time.Duration, error)          {}
func (NoopMetricsCollector) RecordPageIO(string, int)                   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount           atomic.Int64
	LoadErrors          atomic.Int64
	LoadTotalNanos      atomic.Int64
	BlocksWritten       atomic.Int64
	TransposeCount      atomic.Int64
	TransposeErrors     atomic.Int64
	TransposeTotalNanos atomic.Int64
	ExportCount         atomic.Int64
	ExportErrors        atomic.Int64
	PageAppends         atomic.Int64
	PageWrites          atomic.Int64
	PageReads           atomic.Int64
	PageDeletes         atomic.Int64
	PageBytes           atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ bool, blocks int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.BlocksWritten.Add(int64(blocks))
}

// RecordTranspose implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTranspose(_ bool, duration time.Duration, err error) {
	b.TransposeCount.Add(1)
	b.TransposeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TransposeErrors.Add(1)
	}
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(_ time.Duration, err error) {
	b.ExportCount.Add(1)
	if err != nil {
		b.ExportErrors.Add(1)
	}
}

// RecordPageIO implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPageIO(op string, bytes int) {
	switch op {
	case "append":
		b.PageAppends.Add(1)
	case "write":
		b.PageWrites.Add(1)
	case "read":
		b.PageReads.Add(1)
	case "delete":
		b.PageDeletes.Add(1)
	}
	b.PageBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		LoadAvgNanos:      avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		BlocksWritten:     b.BlocksWritten.Load(),
		TransposeCount:    b.TransposeCount.Load(),
		TransposeErrors:   b.TransposeErrors.Load(),
		TransposeAvgNanos: avg(b.TransposeTotalNanos.Load(), b.TransposeCount.Load()),
		ExportCount:       b.ExportCount.Load(),
		ExportErrors:      b.ExportErrors.Load(),
		PageAppends:       b.PageAppends.Load(),
		PageWrites:        b.PageWrites.Load(),
		PageReads:         b.PageReads.Load(),
		PageDeletes:       b.PageDeletes.Load(),
		PageBytes:         b.PageBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount         int64
	LoadErrors        int64
	LoadAvgNanos      int64
	BlocksWritten     int64
	TransposeCount    int64
	TransposeErrors   int64
	TransposeAvgNanos int64
	ExportCount       int64
	ExportErrors      int64
	PageAppends       int64
	PageWrites        int64
	PageReads         int64
	PageDeletes       int64
	PageBytes         int64
}
