package slichash

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    indexCounter    prometheus.Counter
//	    queryHistogram  prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordIndex(regions int, duration time.Duration, err error) {
//	    p.indexCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordIndex is called after each database image is indexed.
	// regions is the number of descriptors inserted, err is nil if successful.
	RecordIndex(regions int, duration time.Duration, err error)

	// RecordBuild is called after each bulk build.
	// count is the number of images attempted, failed is the number that failed.
	RecordBuild(count, failed int, duration time.Duration)

	// RecordQuery is called after each query. regions is the number of query
	// descriptors, votes the vote count of the winner (0 on NoMatch).
	RecordQuery(regions, votes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndex(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordBuild(int, int, time.Duration)        {}
func (NoopMetricsCollector) RecordQuery(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexCount      atomic.Int64
	IndexErrors     atomic.Int64
	IndexRegions    atomic.Int64
	IndexTotalNanos atomic.Int64
	BuildCount      atomic.Int64
	BuildImages     atomic.Int64
	BuildFailed     atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryMisses     atomic.Int64
	QueryTotalNanos atomic.Int64
}

// RecordIndex implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndex(regions int, duration time.Duration, err error) {
	b.IndexCount.Add(1)
	b.IndexTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IndexErrors.Add(1)
		return
	}
	b.IndexRegions.Add(int64(regions))
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(count, failed int, _ time.Duration) {
	b.BuildCount.Add(1)
	b.BuildImages.Add(int64(count))
	b.BuildFailed.Add(int64(failed))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_, votes int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	switch {
	case err != nil:
		b.QueryErrors.Add(1)
	case votes == 0:
		b.QueryMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexCount:    b.IndexCount.Load(),
		IndexErrors:   b.IndexErrors.Load(),
		IndexRegions:  b.IndexRegions.Load(),
		IndexAvgNanos: avg(b.IndexTotalNanos.Load(), b.IndexCount.Load()),
		BuildCount:    b.BuildCount.Load(),
		BuildImages:   b.BuildImages.Load(),
		BuildFailed:   b.BuildFailed.Load(),
		QueryCount:    b.QueryCount.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QueryMisses:   b.QueryMisses.Load(),
		QueryAvgNanos: avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
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
	IndexCount    int64
	IndexErrors   int64
	IndexRegions  int64
	IndexAvgNanos int64
	BuildCount    int64
	BuildImages   int64
	BuildFailed   int64
	QueryCount    int64
	QueryErrors   int64
	QueryMisses   int64
	QueryAvgNanos int64
}
