// Package metrics provides Prometheus instrumentation for csvcols. Loading,
// dumping and format conversion record into the collectors defined here.
//
// # Overview
//
// The metrics package provides:
//   - Counters for rows loaded, skipped and written
//   - A counter of Documents built, by source
//   - A load duration histogram
//   - Timer and ThroughputTracker helpers
//
// # Basic Usage
//
//	timer := metrics.NewTimer("csv")
//	doc, err := csvio.Load(r)
//	timer.ObserveDuration()
//
//	metrics.RowsWritten.WithLabelValues("parquet").Add(float64(doc.NumRows()))
//
// All collectors register with the default Prometheus registry through
// promauto.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RowsLoaded counts data rows kept by the CSV loader.
	RowsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvcols_rows_loaded_total",
			Help: "Total number of CSV data rows kept by the loader",
		},
	)

	// RowsSkipped counts blank rows dropped by the CSV loader.
	RowsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvcols_rows_skipped_total",
			Help: "Total number of blank CSV rows dropped by the loader",
		},
	)

	// DocumentsBuilt counts Documents produced by an input source.
	// Labels: source (csv, arrow, parquet, avro, jsonl, postgres)
	DocumentsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvcols_documents_built_total",
			Help: "Total number of Documents built, by source",
		},
		[]string{"source"},
	)

	// LoadDuration tracks how long building a Document from a source takes.
	// Labels: source
	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "csvcols_load_duration_seconds",
			Help: "Time spent building a Document from a source",
			Buckets: []float64{
				0.0001, // 100μs - a handful of rows
				0.001,  // 1ms
				0.01,   // 10ms
				0.1,    // 100ms
				1,      // 1s
				10,     // 10s - large files
			},
		},
		[]string{"source"},
	)

	// RowsWritten counts rows serialized by a writer.
	// Labels: format (csv, arrow, parquet, avro, jsonl)
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvcols_rows_written_total",
			Help: "Total number of rows written, by format",
		},
		[]string{"format"},
	)

	// Throughput tracks rows per second of the last measured operation.
	// Labels: operation
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "csvcols_throughput_rows_per_second",
			Help: "Rows per second of the last measured operation",
		},
		[]string{"operation"},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures the duration of one load from a source.
type Timer struct {
	start  time.Time
	source string
}

// NewTimer starts timing a load from source.
func NewTimer(source string) *Timer {
	return &Timer{
		start:  time.Now(),
		source: source,
	}
}

// Stop returns the elapsed time since creation. It can be called more than
// once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in LoadDuration and returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := t.Stop()
	LoadDuration.WithLabelValues(t.source).Observe(d.Seconds())
	return d
}

// ThroughputTracker tracks rows per second over time windows.
// Safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	operation string
}

// NewThroughputTracker creates a tracker labelled with operation.
func NewThroughputTracker(operation string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		operation: operation,
	}
}

// Increment adds n to the row count.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset computes rows per second since the last reset, publishes it
// to Throughput and starts a new window.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.operation).Set(throughput)

	return throughput
}
