package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewAlert(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("fields are set", func(t *testing.T) {
		a := NewAlert(AlertPriceSpike, SeverityHigh, "msg", now)
		if a.Kind != AlertPriceSpike || a.Severity != SeverityHigh || a.Message != "msg" {
			t.Errorf("Unexpected alert: %+v", a)
		}
		if !a.CreatedAt.Equal(now) {
			t.Errorf("Expected CreatedAt %v, got %v", now, a.CreatedAt)
		}
		if !strings.HasPrefix(a.ID, "price_spike-") {
			t.Errorf("Expected kind prefix in id, got %s", a.ID)
		}
	})

	t.Run("ids are unique within the same instant", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			a := NewAlert(AlertPriceDrop, SeverityMedium, "msg", now)
			if seen[a.ID] {
				t.Fatalf("Duplicate alert id %s", a.ID)
			}
			seen[a.ID] = true
		}
	})
}

func TestAlertMessages(t *testing.T) {
	t.Run("integrity", func(t *testing.T) {
		got := IntegrityMessage("Bitcoin")
		if got != "Data integrity issue detected for Bitcoin" {
			t.Errorf("Unexpected message %q", got)
		}
	})

	t.Run("spike", func(t *testing.T) {
		got := PriceChangeMessage(AlertPriceSpike, "Solana", decimal.RequireFromString("11"))
		if got != "Significant price spike detected for Solana: 11.00%" {
			t.Errorf("Unexpected message %q", got)
		}
	})

	t.Run("drop", func(t *testing.T) {
		got := PriceChangeMessage(AlertPriceDrop, "Cardano", decimal.RequireFromString("25.456"))
		if got != "Significant price drop detected for Cardano: 25.46%" {
			t.Errorf("Unexpected message %q", got)
		}
	})
}
