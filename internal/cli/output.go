package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"coinsync/internal/domain"
)

// writeRecords prints up to limit records as an aligned table.
func writeRecords(w io.Writer, records []domain.Record, limit int) {
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tPRICE\t24H\tMARKET CAP")
	for _, r := range records[:limit] {
		fmt.Fprintf(tw, "%d\t%s (%s)\t%s\t%s\t%s\n",
			r.MarketCapRank,
			r.Name,
			strings.ToUpper(r.Symbol),
			domain.FormatCurrency(r.CurrentPrice),
			signed(domain.FormatPercentage(r.PriceChangePct24h), r),
			domain.FormatMarketCap(r.MarketCap),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d records\n", limit, len(records))
}

func signed(pct string, r domain.Record) string {
	if r.ChangeDirection() == "positive" {
		return "+" + pct
	}
	return pct
}

// writeAlerts prints alerts oldest first.
func writeAlerts(w io.Writer, alerts []domain.Alert) {
	for _, a := range alerts {
		fmt.Fprintf(w, "[%s] %s: %s\n", strings.ToUpper(string(a.Severity)), a.Kind, a.Message)
	}
}

// lockedWriter serializes writes from the refresh loop and the alert drainer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
