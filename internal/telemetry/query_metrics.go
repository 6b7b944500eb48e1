// Package telemetry collects query metrics: mode frequency, zero-result
// queries, and latency distribution. Collection is best-effort and must
// never fail a search.
package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// Search modes recorded per query.
const (
	ModeDense   = "dense"
	ModeLexical = "lexical"
	ModeHybrid  = "hybrid"
)

// MaxZeroResultQueries caps the retained zero-result query list.
const MaxZeroResultQueries = 100

// QueryEvent describes a single executed search.
type QueryEvent struct {
	Query       string
	Mode        string
	ResultCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// MetricsStore persists query events.
type MetricsStore interface {
	RecordEvent(ev QueryEvent) error
	Summary() (*Summary, error)
	Close() error
}

// Summary aggregates recorded metrics for display.
type Summary struct {
	TotalQueries      int64
	QueriesByMode     map[string]int64
	ZeroResultQueries []string
	LatencyBuckets    map[string]int64
}

// QueryMetrics aggregates query events in memory and optionally forwards
// them to a persistent store.
type QueryMetrics struct {
	mu          sync.Mutex
	store       MetricsStore
	total       int64
	byMode      map[string]int64
	zeroResults []string
	buckets     map[string]int64
}

// NewQueryMetrics creates a collector. The store may be nil for
// in-memory-only collection.
func NewQueryMetrics(store MetricsStore) *QueryMetrics {
	return &QueryMetrics{
		store:   store,
		byMode:  make(map[string]int64),
		buckets: make(map[string]int64),
	}
}

// Record registers one query event. Store failures are logged, not
// propagated.
func (m *QueryMetrics) Record(ev QueryEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.total++
	m.byMode[ev.Mode]++
	m.buckets[LatencyBucket(ev.Latency)]++
	if ev.ResultCount == 0 {
		m.zeroResults = append(m.zeroResults, ev.Query)
		if len(m.zeroResults) > MaxZeroResultQueries {
			m.zeroResults = m.zeroResults[len(m.zeroResults)-MaxZeroResultQueries:]
		}
	}
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.RecordEvent(ev); err != nil {
			slog.Warn("telemetry_record_failed", slog.String("error", err.Error()))
		}
	}
}

// Snapshot returns the in-memory aggregates.
func (m *QueryMetrics) Snapshot() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	byMode := make(map[string]int64, len(m.byMode))
	for k, v := range m.byMode {
		byMode[k] = v
	}
	buckets := make(map[string]int64, len(m.buckets))
	for k, v := range m.buckets {
		buckets[k] = v
	}
	zero := make([]string, len(m.zeroResults))
	copy(zero, m.zeroResults)

	return Summary{
		TotalQueries:      m.total,
		QueriesByMode:     byMode,
		ZeroResultQueries: zero,
		LatencyBuckets:    buckets,
	}
}

// LatencyBucket maps a latency to its histogram bucket.
func LatencyBucket(d time.Duration) string {
	switch {
	case d < 10*time.Millisecond:
		return "<10ms"
	case d < 50*time.Millisecond:
		return "10-50ms"
	case d < 100*time.Millisecond:
		return "50-100ms"
	case d < 500*time.Millisecond:
		return "100-500ms"
	default:
		return ">500ms"
	}
}
