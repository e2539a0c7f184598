package domain

import "github.com/shopspring/decimal"

// PageSize is the fixed number of records the upstream returns per page.
const PageSize = 20

// Record is one market entity as returned by the /coins/markets endpoint.
// JSON names follow the upstream payload so the same type decodes the
// response and feeds the content hash.
type Record struct {
	ID                string          `json:"id"`
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	MarketCap         int64           `json:"market_cap"`
	MarketCapRank     int             `json:"market_cap_rank"`
	Image             string          `json:"image"`
	PriceChangePct24h decimal.Decimal `json:"price_change_percentage_24h"`

	// ContentHash is stamped by the sync controller after a fetch and is
	// never part of its own hash input.
	ContentHash string `json:"content_hash,omitempty"`
}

// WithoutHash returns a copy of the record with ContentHash cleared.
func (r Record) WithoutHash() Record {
	r.ContentHash = ""
	return r
}

// IsStamped reports whether a content hash has been set.
func (r Record) IsStamped() bool {
	return r.ContentHash != ""
}

// ChangeDirection returns "positive", "negative", or "neutral"
func (r Record) ChangeDirection() string {
	if r.PriceChangePct24h.IsPositive() {
		return "positive"
	}
	if r.PriceChangePct24h.IsNegative() {
		return "negative"
	}
	return "neutral"
}

// PageResult is the outcome of one successful page fetch.
type PageResult struct {
	Records []Record `json:"records"`
	Page    int      `json:"page"`
}

// IsFull reports whether the page was a full page, which is the only signal
// the upstream gives that more pages may follow.
func (p PageResult) IsFull() bool {
	return len(p.Records) == PageSize
}

// IndexByID maps record ids to their position in records.
func IndexByID(records []Record) map[string]int {
	idx := make(map[string]int, len(records))
	for i, r := range records {
		idx[r.ID] = i
	}
	return idx
}
