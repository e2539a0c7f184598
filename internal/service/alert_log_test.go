package service

import (
	"testing"
	"time"

	"coinsync/internal/domain"
)

func TestAlertLog_FIFO(t *testing.T) {
	log := NewAlertLog()
	now := time.Now()

	a := domain.NewAlert(domain.AlertPriceSpike, domain.SeverityMedium, "a", now)
	b := domain.NewAlert(domain.AlertPriceDrop, domain.SeverityHigh, "b", now)
	c := domain.NewAlert(domain.AlertDataIntegrity, domain.SeverityHigh, "c", now)

	log.Append(a)
	log.Append(b, c)
	log.Append()

	all := log.All()
	if len(all) != 3 || log.Len() != 3 {
		t.Fatalf("Expected 3 alerts, got %d", len(all))
	}
	for i, want := range []string{"a", "b", "c"} {
		if all[i].Message != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, all[i].Message)
		}
	}

	all[0].Message = "mutated"
	if log.All()[0].Message != "a" {
		t.Error("All must return a copy")
	}
}

func TestAlertLog_Clear(t *testing.T) {
	log := NewAlertLog()
	log.Append(domain.NewAlert(domain.AlertPriceSpike, domain.SeverityMedium, "a", time.Now()))

	if n := log.Clear(); n != 1 {
		t.Errorf("Expected 1 cleared, got %d", n)
	}
	if log.Len() != 0 || len(log.All()) != 0 {
		t.Error("Expected empty log after Clear")
	}
}
