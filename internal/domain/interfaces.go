package domain

import "context"

// MarketDataSource fetches one page of market records. Implementations are
// single-shot: retry policy belongs to the caller.
type MarketDataSource interface {
	FetchPage(ctx context.Context, page int) (PageResult, error)
}
