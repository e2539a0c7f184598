package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertKind classifies an alert.
type AlertKind string

const (
	AlertPriceSpike    AlertKind = "price_spike"
	AlertPriceDrop     AlertKind = "price_drop"
	AlertDataIntegrity AlertKind = "data_integrity"
)

// Severity of an alert.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Alert is a flagged price swing or integrity failure.
// Alerts are value objects; the AlertLog owns their lifetime.
type Alert struct {
	ID        string    `json:"id"`
	Kind      AlertKind `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
}

// NewAlert creates an alert with a time-ordered unique id.
func NewAlert(kind AlertKind, severity Severity, message string, now time.Time) Alert {
	return Alert{
		ID:        newAlertID(kind),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		Severity:  severity,
	}
}

// newAlertID returns "<kind>-<uuidv7>". UUIDv7 embeds the creation time in
// its leading bits, so ids sort by creation and never collide within a
// millisecond the way a bare timestamp would.
func newAlertID(kind AlertKind) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return string(kind) + "-" + id.String()
}

// IntegrityMessage formats the message of a DataIntegrity alert.
func IntegrityMessage(name string) string {
	return fmt.Sprintf("Data integrity issue detected for %s", name)
}

// PriceChangeMessage formats the message of a PriceSpike/PriceDrop alert.
func PriceChangeMessage(kind AlertKind, name string, change decimal.Decimal) string {
	word := "drop"
	if kind == AlertPriceSpike {
		word = "spike"
	}
	return fmt.Sprintf("Significant price %s detected for %s: %s%%", word, name, change.StringFixed(2))
}
