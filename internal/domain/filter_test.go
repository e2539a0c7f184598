package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func sampleRecords() []Record {
	return []Record{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", MarketCapRank: 1, PriceChangePct24h: decimal.RequireFromString("2.5")},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", MarketCapRank: 2, PriceChangePct24h: decimal.RequireFromString("-1.2")},
		{ID: "solana", Symbol: "sol", Name: "Solana", MarketCapRank: 5, PriceChangePct24h: decimal.RequireFromString("8.1")},
		{ID: "pepe", Symbol: "pepe", Name: "Pepe", MarketCapRank: 30, PriceChangePct24h: decimal.RequireFromString("-9.7")},
		{ID: "tether", Symbol: "usdt", Name: "Tether", MarketCapRank: 3, PriceChangePct24h: decimal.Zero},
	}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero value matches all", Filter{}, []string{"bitcoin", "ethereum", "solana", "pepe", "tether"}},
		{"term matches name case-insensitively", Filter{Term: "BIT"}, []string{"bitcoin"}},
		{"term matches symbol", Filter{Term: "usdt"}, []string{"tether"}},
		{"top", Filter{Mode: FilterTop}, []string{"bitcoin", "ethereum", "solana", "tether"}},
		{"gainers sorted by gain", Filter{Mode: FilterGainers}, []string{"solana", "bitcoin"}},
		{"losers sorted by loss", Filter{Mode: FilterLosers}, []string{"pepe", "ethereum"}},
		{"term and mode combine", Filter{Term: "e", Mode: FilterLosers}, []string{"pepe", "ethereum"}},
		{"no match", Filter{Term: "doge"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.filter.Apply(sampleRecords()))
			if !equalIDs(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_ApplyDoesNotMutateInput(t *testing.T) {
	in := sampleRecords()
	Filter{Mode: FilterGainers}.Apply(in)
	if in[0].ID != "bitcoin" || in[2].ID != "solana" {
		t.Error("Apply must not reorder the input slice")
	}
}

func TestParseFilterMode(t *testing.T) {
	tests := map[string]FilterMode{
		"all":      FilterAll,
		"Top":      FilterTop,
		" gainers": FilterGainers,
		"losers":   FilterLosers,
		"unknown":  FilterAll,
		"":         FilterAll,
	}
	for in, want := range tests {
		if got := ParseFilterMode(in); got != want {
			t.Errorf("ParseFilterMode(%q) = %s, want %s", in, got, want)
		}
	}
}
