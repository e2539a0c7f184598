package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.567", "$1,234.57"},
		{"1234.5", "$1,234.50"},
		{"65000", "$65,000.00"},
		{"0.5", "$0.50"},
		{"-12.3", "-$12.30"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FormatCurrency(decimal.RequireFromString(tt.in))
			if got != tt.want {
				t.Errorf("FormatCurrency(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	if got := FormatPercentage(decimal.RequireFromString("-3.14159")); got != "-3.14%" {
		t.Errorf("Expected -3.14%%, got %s", got)
	}
	if got := FormatPercentage(decimal.NewFromInt(5)); got != "5.00%" {
		t.Errorf("Expected 5.00%%, got %s", got)
	}
}

func TestFormatMarketCap(t *testing.T) {
	if got := FormatMarketCap(1234567890); got != "$1,234,567,890" {
		t.Errorf("Expected $1,234,567,890, got %s", got)
	}
}
