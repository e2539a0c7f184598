package domain

import (
	"sort"
	"strings"
)

// FilterMode selects a subset of the committed records.
type FilterMode string

const (
	FilterAll     FilterMode = "all"
	FilterTop     FilterMode = "top"
	FilterGainers FilterMode = "gainers"
	FilterLosers  FilterMode = "losers"
)

// TopRankCutoff is the highest market cap rank included in FilterTop.
const TopRankCutoff = 10

// Filter combines a search term with a list mode.
// The zero value matches every record.
type Filter struct {
	Term string
	Mode FilterMode
}

// ParseFilterMode maps a UI filter id to a FilterMode, defaulting to FilterAll.
func ParseFilterMode(s string) FilterMode {
	switch FilterMode(strings.ToLower(strings.TrimSpace(s))) {
	case FilterTop:
		return FilterTop
	case FilterGainers:
		return FilterGainers
	case FilterLosers:
		return FilterLosers
	default:
		return FilterAll
	}
}

// Matches reports whether r passes the term and mode predicates.
func (f Filter) Matches(r Record) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Term)); term != "" {
		if !strings.Contains(strings.ToLower(r.Name), term) &&
			!strings.Contains(strings.ToLower(r.Symbol), term) {
			return false
		}
	}

	switch f.Mode {
	case FilterTop:
		return r.MarketCapRank > 0 && r.MarketCapRank <= TopRankCutoff
	case FilterGainers:
		return r.PriceChangePct24h.IsPositive()
	case FilterLosers:
		return r.PriceChangePct24h.IsNegative()
	default:
		return true
	}
}

// Apply returns the matching records in a new slice. Gainers are ordered by
// largest gain first and losers by largest loss first; other modes keep the
// input (market cap) order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}

	switch f.Mode {
	case FilterGainers:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PriceChangePct24h.GreaterThan(out[j].PriceChangePct24h)
		})
	case FilterLosers:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PriceChangePct24h.LessThan(out[j].PriceChangePct24h)
		})
	}
	return out
}
