package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability of the sync loop without
// external dependencies. Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	fetches           atomic.Uint64
	commits           atomic.Uint64
	rateLimited       atomic.Uint64
	retries           atomic.Uint64
	fetchFailures     atomic.Uint64
	integrityFailures atomic.Uint64
	alertsEmitted     atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	recordsHeld atomic.Int64
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordFetch records one upstream round trip with its latency.
func (m *Metrics) RecordFetch(latency time.Duration) {
	m.fetches.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
}

// RecordCommit records a committed page and the resulting record count.
func (m *Metrics) RecordCommit(records int) {
	m.commits.Add(1)
	m.recordsHeld.Store(int64(records))
}

// RecordRateLimited records an HTTP 429.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Add(1)
}

// RecordRetry records a scheduled retry.
func (m *Metrics) RecordRetry() {
	m.retries.Add(1)
}

// RecordFetchFailure records a terminal fetch error.
func (m *Metrics) RecordFetchFailure() {
	m.fetchFailures.Add(1)
}

// RecordIntegrityFailure records a page rejected by hash verification.
func (m *Metrics) RecordIntegrityFailure() {
	m.integrityFailures.Add(1)
}

// RecordAlerts records emitted alerts.
func (m *Metrics) RecordAlerts(n int) {
	if n > 0 {
		m.alertsEmitted.Add(uint64(n))
	}
}

// SetRecordsHeld sets the number of records in the committed snapshot.
func (m *Metrics) SetRecordsHeld(n int) {
	m.recordsHeld.Store(int64(n))
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Fetches           uint64
	Commits           uint64
	RateLimited       uint64
	Retries           uint64
	FetchFailures     uint64
	IntegrityFailures uint64
	AlertsEmitted     uint64
	AvgFetchLatencyNs int64
	RecordsHeld       int64
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		Fetches:           m.fetches.Load(),
		Commits:           m.commits.Load(),
		RateLimited:       m.rateLimited.Load(),
		Retries:           m.retries.Load(),
		FetchFailures:     m.fetchFailures.Load(),
		IntegrityFailures: m.integrityFailures.Load(),
		AlertsEmitted:     m.alertsEmitted.Load(),
		AvgFetchLatencyNs: avgLatency,
		RecordsHeld:       m.recordsHeld.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.fetches.Store(0)
	m.commits.Store(0)
	m.rateLimited.Store(0)
	m.retries.Store(0)
	m.fetchFailures.Store(0)
	m.integrityFailures.Store(0)
	m.alertsEmitted.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.recordsHeld.Store(0)
}
