package integrity

import (
	"errors"
	"testing"

	"coinsync/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitcoin() domain.Record {
	return domain.Record{
		ID:                "bitcoin",
		Symbol:            "btc",
		Name:              "Bitcoin",
		CurrentPrice:      decimal.RequireFromString("65000.12"),
		MarketCap:         1280000000000,
		MarketCapRank:     1,
		Image:             "https://assets.coingecko.com/coins/images/1/large/bitcoin.png",
		PriceChangePct24h: decimal.RequireFromString("2.5"),
	}
}

func mustHash(t *testing.T, r domain.Record) string {
	t.Helper()
	hash, err := HashRecord(r)
	require.NoError(t, err)
	return hash
}

func TestComputeHashDeterminism(t *testing.T) {
	r := bitcoin()

	h1, err := ComputeHash(r)
	require.NoError(t, err)
	h2, err := ComputeHash(r)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "ComputeHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestComputeHashIgnoresKeyOrder(t *testing.T) {
	a := map[string]any{"id": "bitcoin", "symbol": "btc", "rank": 1}
	b := map[string]any{"rank": 1, "symbol": "btc", "id": "bitcoin"}

	ha, err := ComputeHash(a)
	require.NoError(t, err)
	hb, err := ComputeHash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestComputeHashStructMatchesEquivalentMap(t *testing.T) {
	type pair struct {
		B int    `json:"b"`
		A string `json:"a"`
	}
	hs, err := ComputeHash(pair{B: 2, A: "x"})
	require.NoError(t, err)
	hm, err := ComputeHash(map[string]any{"a": "x", "b": 2})
	require.NoError(t, err)

	assert.Equal(t, hs, hm, "struct field order must not matter")
}

func TestComputeHashSerializationError(t *testing.T) {
	_, err := ComputeHash(map[string]any{"feed": make(chan int)})
	var se *domain.SerializationError
	assert.True(t, errors.As(err, &se))
}

func TestHashRecordExcludesContentHash(t *testing.T) {
	r := bitcoin()
	plain := mustHash(t, r)

	r.ContentHash = "deadbeef"
	assert.Equal(t, plain, mustHash(t, r), "ContentHash must not feed its own hash")
}

func TestHashRecordChangesWithEveryField(t *testing.T) {
	base := mustHash(t, bitcoin())

	mutations := map[string]func(*domain.Record){
		"id":       func(r *domain.Record) { r.ID = "bitcoin-2" },
		"symbol":   func(r *domain.Record) { r.Symbol = "xbt" },
		"name":     func(r *domain.Record) { r.Name = "Bitcoin Cash" },
		"price":    func(r *domain.Record) { r.CurrentPrice = decimal.RequireFromString("65000.13") },
		"cap":      func(r *domain.Record) { r.MarketCap++ },
		"rank":     func(r *domain.Record) { r.MarketCapRank = 2 },
		"image":    func(r *domain.Record) { r.Image = "https://example.com/x.png" },
		"change24": func(r *domain.Record) { r.PriceChangePct24h = decimal.RequireFromString("-2.5") },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			r := bitcoin()
			mutate(&r)
			assert.NotEqual(t, base, mustHash(t, r))
		})
	}
}

func TestHashRecordEquivalentDecimals(t *testing.T) {
	a := bitcoin()
	b := bitcoin()
	b.PriceChangePct24h = decimal.RequireFromString("2.50")

	assert.Equal(t, mustHash(t, a), mustHash(t, b), "2.5 and 2.50 are the same value")
}

func TestStampAll(t *testing.T) {
	eth := bitcoin()
	eth.ID = "ethereum"

	stamped, err := StampAll([]domain.Record{bitcoin(), eth})
	require.NoError(t, err)
	require.Len(t, stamped, 2)

	for _, r := range stamped {
		assert.True(t, r.IsStamped())
		assert.Equal(t, mustHash(t, r), r.ContentHash)
	}
	assert.NotEqual(t, stamped[0].ContentHash, stamped[1].ContentHash)
}

func TestStampAllKeepsExistingHash(t *testing.T) {
	forged := bitcoin()
	forged.ContentHash = "deadbeef"

	stamped, err := StampAll([]domain.Record{forged, bitcoin()})
	require.NoError(t, err)

	assert.Equal(t, "deadbeef", stamped[0].ContentHash, "an existing hash must reach verification untouched")
	assert.Equal(t, mustHash(t, bitcoin()), stamped[1].ContentHash)

	var ie *domain.IntegrityError
	assert.True(t, errors.As(VerifyAll(stamped), &ie))
}
