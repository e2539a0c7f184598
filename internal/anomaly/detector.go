// Package anomaly flags large swings in the 24h change of a record between
// two successive fetches.
package anomaly

import (
	"time"

	"coinsync/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	// DefaultSpikeThreshold is the delta, in percentage points, above which an alert fires.
	DefaultSpikeThreshold = decimal.NewFromInt(10)
	// DefaultHighThreshold is the delta above which an alert is High severity.
	DefaultHighThreshold = decimal.NewFromInt(20)
)

// Detector compares two fetch results of the same records.
type Detector struct {
	spikeThreshold decimal.Decimal
	highThreshold  decimal.Decimal
	now            func() time.Time
}

// NewDetector creates a detector. Zero thresholds fall back to the defaults.
func NewDetector(spikeThreshold, highThreshold decimal.Decimal) *Detector {
	if spikeThreshold.IsZero() {
		spikeThreshold = DefaultSpikeThreshold
	}
	if highThreshold.IsZero() {
		highThreshold = DefaultHighThreshold
	}
	return &Detector{
		spikeThreshold: spikeThreshold,
		highThreshold:  highThreshold,
		now:            time.Now,
	}
}

// WithClock replaces the alert timestamp source.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// Detect returns one alert per record in next whose id is also in previous
// and whose 24h change moved by more than the spike threshold. Records
// without a baseline in previous are skipped. Alerts follow next's order.
func (d *Detector) Detect(previous, next []domain.Record) []domain.Alert {
	if len(previous) == 0 || len(next) == 0 {
		return nil
	}

	baseline := make(map[string]decimal.Decimal, len(previous))
	for _, r := range previous {
		baseline[r.ID] = r.PriceChangePct24h
	}

	var alerts []domain.Alert
	now := d.now()
	for _, r := range next {
		prev, ok := baseline[r.ID]
		if !ok {
			continue
		}

		delta := r.PriceChangePct24h.Sub(prev).Abs()
		if !delta.GreaterThan(d.spikeThreshold) {
			continue
		}

		kind := domain.AlertPriceDrop
		if r.PriceChangePct24h.GreaterThan(prev) {
			kind = domain.AlertPriceSpike
		}
		severity := domain.SeverityMedium
		if delta.GreaterThan(d.highThreshold) {
			severity = domain.SeverityHigh
		}

		alerts = append(alerts, domain.NewAlert(kind, severity, domain.PriceChangeMessage(kind, r.Name, delta), now))
	}
	return alerts
}
