// Package coingecko fetches market pages from the CoinGecko v3 REST API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coinsync/internal/domain"
	"coinsync/internal/infra"

	"golang.org/x/time/rate"
)

const (
	marketsPath = "/coins/markets"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// Client implements domain.MarketDataSource. It issues exactly one request
// per FetchPage call; retry policy belongs to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	vsCurrency string
	perPage    int
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *infra.Metrics
	logger     *slog.Logger
}

var _ domain.MarketDataSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMinInterval sets the minimum spacing between requests. Zero disables pacing.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		c.limiter = newLimiter(d)
	}
}

// WithMetrics records fetch latency and outcomes.
func WithMetrics(m *infra.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client from the api.coingecko section of cfg.
func NewClient(cfg *infra.Config, opts ...Option) *Client {
	cg := cfg.API.CoinGecko
	c := &Client{
		baseURL:    cg.BaseURL,
		apiKey:     cg.APIKey,
		vsCurrency: cg.VsCurrency,
		perPage:    cg.PerPage,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
		limiter: newLimiter(cfg.MinInterval()),
		logger:  slog.Default().With("module", "coingecko_client"),
	}
	if c.baseURL == "" {
		c.baseURL = infra.DefaultBaseURL
	}
	if c.vsCurrency == "" {
		c.vsCurrency = "usd"
	}
	if c.perPage <= 0 {
		c.perPage = domain.PageSize
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newLimiter allows one request per interval. The initial token is spent so
// the very first request also waits a full interval.
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	l.Allow()
	return l
}

// FetchPage requests one page of markets ordered by market cap.
//
// Errors:
//   - domain.ErrInvalidPage for page < 1
//   - domain.ErrRateLimited on HTTP 429
//   - *domain.FetchError for transport failures, other non-2xx statuses
//     and undecodable bodies
//   - ctx.Err() if the context ends while pacing
func (c *Client) FetchPage(ctx context.Context, page int) (domain.PageResult, error) {
	if page < 1 {
		return domain.PageResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidPage, page)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.PageResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.marketsURL(page), nil)
	if err != nil {
		return domain.PageResult{}, &domain.FetchError{Page: page, Message: domain.FetchFailedMessage, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.RecordFetch(time.Since(start))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.PageResult{}, ctxErr
		}
		c.logger.Warn("Market fetch failed", slog.Int("page", page), slog.Any("error", err))
		return domain.PageResult{}, &domain.FetchError{Page: page, Message: domain.FetchFailedMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("Rate limited by upstream", slog.Int("page", page))
		return domain.PageResult{}, domain.ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp.Body)
		c.logger.Warn("Market fetch failed",
			slog.Int("page", page),
			slog.Int("status", resp.StatusCode),
			slog.String("message", msg),
		)
		return domain.PageResult{}, &domain.FetchError{Page: page, StatusCode: resp.StatusCode, Message: msg}
	}

	var records []domain.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		c.logger.Warn("Undecodable market page", slog.Int("page", page), slog.Any("error", err))
		return domain.PageResult{}, &domain.FetchError{
			Page:       page,
			StatusCode: resp.StatusCode,
			Message:    domain.FetchFailedMessage,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	if records == nil {
		records = []domain.Record{}
	}

	c.logger.Debug("Fetched market page", slog.Int("page", page), slog.Int("records", len(records)))
	return domain.PageResult{Records: records, Page: page}, nil
}

func (c *Client) marketsURL(page int) string {
	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "false")
	return c.baseURL + marketsPath + "?" + q.Encode()
}

// errorMessage extracts the upstream's {"error": "..."} text, falling back to
// domain.FetchFailedMessage. Some CoinGecko errors nest it as
// {"status": {"error_message": "..."}}.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return domain.FetchFailedMessage
	}

	var payload struct {
		Error  json.RawMessage `json:"error"`
		Status struct {
			ErrorMessage string `json:"error_message"`
		} `json:"status"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.FetchFailedMessage
	}

	var text string
	if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &text) == nil && text != "" {
		return text
	}
	if payload.Status.ErrorMessage != "" {
		return payload.Status.ErrorMessage
	}
	return domain.FetchFailedMessage
}
