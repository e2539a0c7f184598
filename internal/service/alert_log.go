package service

import (
	"sync"

	"coinsync/internal/domain"
)

// AlertLog is an ordered FIFO of alerts. It has no expiry of its own; the
// presentation layer clears it after its display window.
type AlertLog struct {
	mu     sync.RWMutex
	alerts []domain.Alert
}

// NewAlertLog creates an empty log.
func NewAlertLog() *AlertLog {
	return &AlertLog{}
}

// Append adds alerts in order.
func (l *AlertLog) Append(alerts ...domain.Alert) {
	if len(alerts) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.alerts = append(l.alerts, alerts...)
}

// All returns a copy of the alerts, oldest first.
func (l *AlertLog) All() []domain.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Alert, len(l.alerts))
	copy(out, l.alerts)
	return out
}

// Len returns the number of held alerts.
func (l *AlertLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.alerts)
}

// Clear drops every alert and returns how many were dropped.
func (l *AlertLog) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.alerts)
	l.alerts = nil
	return n
}
