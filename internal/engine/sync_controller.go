package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"coinsync/internal/anomaly"
	"coinsync/internal/domain"
	"coinsync/internal/infra"
	"coinsync/internal/integrity"
	"coinsync/internal/service"

	"github.com/shopspring/decimal"
)

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// SyncController drives the fetch → stamp → verify → detect → commit
// pipeline. It is the only writer of the pagination store.
type SyncController struct {
	source   domain.MarketDataSource
	store    *service.PaginationStore
	alerts   *service.AlertLog
	detector *anomaly.Detector
	metrics  *infra.Metrics
	logger   *slog.Logger

	maxRetries  int
	backoffBase time.Duration
	debounce    time.Duration
	wait        WaitFunc
	now         func() time.Time

	mu            sync.Mutex
	loadMoreTimer *time.Timer
	active        *syncRun
	closeCtx      context.Context
	closeFn       context.CancelFunc
	closed        bool
	wg            sync.WaitGroup

	rngMu sync.Mutex
	rng   *rand.Rand
}

// syncRun is the handle of the sync currently owning the controller. It stays
// set until that sync returns, even after a reset has superseded it.
type syncRun struct {
	cancel context.CancelFunc
}

// ControllerOption configures a SyncController.
type ControllerOption func(*SyncController)

// WithMaxRetries bounds automatic retries after a rate-limit response.
// Values below 1 are ignored.
func WithMaxRetries(n int) ControllerOption {
	return func(c *SyncController) {
		if n >= 1 {
			c.maxRetries = n
		}
	}
}

// WithBackoffBase sets the unit of the linear rate-limit backoff.
func WithBackoffBase(d time.Duration) ControllerOption {
	return func(c *SyncController) {
		if d >= 0 {
			c.backoffBase = d
		}
	}
}

// WithLoadMoreDebounce sets the window in which LoadMore calls coalesce.
func WithLoadMoreDebounce(d time.Duration) ControllerOption {
	return func(c *SyncController) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithWaitFunc replaces the backoff sleep (tests).
func WithWaitFunc(fn WaitFunc) ControllerOption {
	return func(c *SyncController) {
		if fn != nil {
			c.wait = fn
		}
	}
}

// WithClock sets the time source used for alert timestamps.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *SyncController) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics records sync outcomes.
func WithMetrics(m *infra.Metrics) ControllerOption {
	return func(c *SyncController) {
		c.metrics = m
	}
}

// WithRand seeds alert simulation.
func WithRand(rng *rand.Rand) ControllerOption {
	return func(c *SyncController) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// NewSyncController wires a controller. store, alerts and detector may be
// nil, in which case fresh defaults are used.
func NewSyncController(source domain.MarketDataSource, store *service.PaginationStore, alerts *service.AlertLog, detector *anomaly.Detector, opts ...ControllerOption) *SyncController {
	if store == nil {
		store = service.NewPaginationStore()
	}
	if alerts == nil {
		alerts = service.NewAlertLog()
	}
	if detector == nil {
		detector = anomaly.NewDetector(decimal.Zero, decimal.Zero)
	}

	closeCtx, closeFn := context.WithCancel(context.Background())
	c := &SyncController{
		source:      source,
		store:       store,
		alerts:      alerts,
		detector:    detector,
		metrics:     infra.NewMetrics(),
		logger:      slog.Default().With("module", "sync_controller"),
		maxRetries:  domain.MaxRetries,
		backoffBase: time.Second,
		debounce:    200 * time.Millisecond,
		wait:        sleepContext,
		now:         time.Now,
		closeCtx:    closeCtx,
		closeFn:     closeFn,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = infra.NewMetrics()
	}
	c.detector.WithClock(c.now)
	return c
}

// Sync fetches page and merges it into the store. Page 1 replaces the
// record set, later pages append. Returns domain.ErrSyncInProgress without
// side effects if another sync is running, including one that a reset has
// cancelled but that has not returned yet.
func (c *SyncController) Sync(ctx context.Context, page int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &syncRun{cancel: cancel}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return context.Canceled
	}
	if c.active != nil {
		c.mu.Unlock()
		c.logger.Debug("Sync skipped, already in progress", slog.Int("page", page))
		return domain.ErrSyncInProgress
	}
	c.active = run
	c.mu.Unlock()
	defer c.release(run)

	ticket, previous, err := c.store.Begin(page)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			c.logger.Debug("Sync skipped, already in progress", slog.Int("page", page))
		}
		return err
	}

	c.logger.Info("Sync started", slog.Int("page", page))

	retryCount := 0
	for {
		result, err := c.source.FetchPage(ctx, page)
		if err == nil {
			return c.commit(ticket, page, previous, result.Records)
		}

		if ctx.Err() != nil {
			c.store.Fail(ticket, "Sync cancelled")
			return ctx.Err()
		}

		if !errors.Is(err, domain.ErrRateLimited) {
			c.metrics.RecordFetchFailure()
			msg := failureMessage(err)
			c.logger.Warn("Sync failed", slog.Int("page", page), slog.Any("error", err))
			c.store.Fail(ticket, msg)
			return err
		}

		c.metrics.RecordRateLimited()
		if retryCount < c.maxRetries {
			retryCount++
		}
		if retryCount >= c.maxRetries {
			msg := fmt.Sprintf("Rate limit exceeded: retry attempt %d of %d failed", retryCount, c.maxRetries)
			c.logger.Warn("Rate limit retries exhausted", slog.Int("page", page), slog.Int("retries", retryCount))
			c.store.SetRetry(ticket, retryCount, "")
			c.store.Fail(ticket, msg)
			return fmt.Errorf("%w: %w", domain.ErrRetriesExhausted, err)
		}

		delay := infra.LinearBackoff(c.backoffBase, retryCount)
		status := fmt.Sprintf("Rate limited, retrying (attempt %d of %d)", retryCount, c.maxRetries)
		c.logger.Info("Rate limited, backing off",
			slog.Int("page", page),
			slog.Int("attempt", retryCount),
			slog.Duration("delay", delay),
		)
		c.store.SetRetry(ticket, retryCount, status)
		c.metrics.RecordRetry()

		if err := c.wait(ctx, delay); err != nil {
			c.store.Fail(ticket, "Sync cancelled")
			return err
		}
	}
}

// release drops run's claim on the controller unless a newer run holds it.
func (c *SyncController) release(run *syncRun) {
	c.mu.Lock()
	if c.active == run {
		c.active = nil
	}
	c.mu.Unlock()
}

// commit stamps and verifies a fetched page, then merges it. A single
// failing record rejects the whole page.
func (c *SyncController) commit(ticket service.Ticket, page int, previous domain.SyncState, fetched []domain.Record) error {
	// A hash supplied by an intermediary is verified, not overwritten.
	records, err := integrity.StampAll(fetched)
	if err != nil {
		return c.failSerialization(ticket, page, err)
	}

	if err := integrity.VerifyAll(records); err != nil {
		var ie *domain.IntegrityError
		if !errors.As(err, &ie) {
			return c.failSerialization(ticket, page, err)
		}

		name := ie.RecordName
		if name == "" {
			name = ie.RecordID
		}
		c.logger.Error("Integrity check failed, page rejected",
			slog.Int("page", page),
			slog.String("record", ie.RecordID),
			slog.String("stored_hash", ie.StoredHash),
			slog.String("current_hash", ie.CurrentHash),
		)
		if !c.store.Fail(ticket, "Data integrity check failed for "+name) {
			c.logger.Debug("Dropped integrity alert from superseded sync", slog.Int("page", page))
			return err
		}
		c.alerts.Append(domain.NewAlert(domain.AlertDataIntegrity, domain.SeverityHigh, domain.IntegrityMessage(name), c.now()))
		c.metrics.RecordIntegrityFailure()
		c.metrics.RecordAlerts(1)
		return err
	}

	found := c.detector.Detect(previous.Records, records)

	if !c.store.Commit(ticket, page, records) {
		c.logger.Debug("Discarded page from superseded sync", slog.Int("page", page))
		return nil
	}

	c.alerts.Append(found...)
	c.metrics.RecordAlerts(len(found))
	snap := c.store.Snapshot()
	c.metrics.RecordCommit(len(snap.Records))

	c.logger.Info("Sync committed",
		slog.Int("page", page),
		slog.Int("fetched", len(records)),
		slog.Int("total", len(snap.Records)),
		slog.Bool("has_more", snap.HasMore),
		slog.Int("alerts", len(found)),
	)
	return nil
}

func (c *SyncController) failSerialization(ticket service.Ticket, page int, err error) error {
	c.logger.Error("Record serialization failed", slog.Int("page", page), slog.Any("error", err))
	c.store.Fail(ticket, err.Error())
	return err
}

// Refresh reloads page 1, replacing the record set.
func (c *SyncController) Refresh(ctx context.Context) error {
	return c.Sync(ctx, 1)
}

// LoadMore schedules a sync of the next page after the debounce window.
// Calls inside the window collapse into one sync. It does nothing while a
// sync is running or when the last page was short.
func (c *SyncController) LoadMore(ctx context.Context) {
	st := c.store.Snapshot()
	if st.Phase.IsLoading() || !st.HasMore {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.loadMoreTimer != nil {
		c.loadMoreTimer.Stop()
	}
	c.loadMoreTimer = time.AfterFunc(c.debounce, func() {
		c.fireLoadMore(ctx)
	})
}

func (c *SyncController) fireLoadMore(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.loadMoreTimer = nil
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.closeCtx, cancel)
	defer stop()

	if ctx.Err() != nil {
		return
	}
	st := c.store.Snapshot()
	if st.Phase.IsLoading() || !st.HasMore {
		return
	}
	if err := c.Sync(ctx, st.NextPage()); err != nil && !errors.Is(err, domain.ErrSyncInProgress) {
		c.logger.Warn("Load more failed", slog.Any("error", err))
	}
}

// ResetPagination cancels any running or scheduled sync and clears the
// record set back to page 1. A cancelled sync keeps the controller until it
// returns, and nothing it does after the reset reaches the store or the
// alert log.
func (c *SyncController) ResetPagination() {
	c.mu.Lock()
	if c.loadMoreTimer != nil {
		c.loadMoreTimer.Stop()
		c.loadMoreTimer = nil
	}
	if c.active != nil {
		c.active.cancel()
	}
	c.mu.Unlock()

	c.store.Reset()
	c.metrics.SetRecordsHeld(0)
	c.logger.Info("Pagination reset")
}

// Snapshot returns the last published state.
func (c *SyncController) Snapshot() domain.SyncState {
	return c.store.Snapshot()
}

// OnUpdate registers fn to receive every published state.
func (c *SyncController) OnUpdate(fn func(domain.SyncState)) {
	c.store.Subscribe(fn)
}

// Alerts returns the held alerts, oldest first.
func (c *SyncController) Alerts() []domain.Alert {
	return c.alerts.All()
}

// ClearAlerts drops every held alert.
func (c *SyncController) ClearAlerts() int {
	return c.alerts.Clear()
}

// SimulateAlert appends a random alert for exercising the presentation layer.
func (c *SyncController) SimulateAlert() domain.Alert {
	c.rngMu.Lock()
	alert := anomaly.Simulate(c.rng, c.now())
	c.rngMu.Unlock()

	c.alerts.Append(alert)
	c.metrics.RecordAlerts(1)
	return alert
}

// VerifyOne re-checks a committed record's content hash on demand.
func (c *SyncController) VerifyOne(id string) (integrity.Verification, error) {
	r, ok := c.store.Record(id)
	if !ok {
		return integrity.Verification{}, fmt.Errorf("verify %q: %w", id, domain.ErrNotFound)
	}
	v, err := integrity.Verify(r)
	if err != nil {
		return integrity.Verification{}, err
	}
	if !v.IsValid {
		c.logger.Warn("Manual verification failed", slog.String("record", id))
	}
	return v, nil
}

// Filter applies f to the committed records.
func (c *SyncController) Filter(f domain.Filter) []domain.Record {
	return f.Apply(c.store.Snapshot().Records)
}

// Select marks a committed record for the detail view.
func (c *SyncController) Select(id string) error {
	return c.store.Select(id)
}

// Selected returns the selected record, if still committed.
func (c *SyncController) Selected() (domain.Record, bool) {
	return c.store.Selected()
}

// Metrics exposes the controller's counters.
func (c *SyncController) Metrics() *infra.Metrics {
	return c.metrics
}

// Close stops the debounce timer, cancels any running sync and waits for
// debounced syncs to return.
func (c *SyncController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.loadMoreTimer != nil {
		c.loadMoreTimer.Stop()
		c.loadMoreTimer = nil
	}
	if c.active != nil {
		c.active.cancel()
	}
	c.mu.Unlock()

	c.closeFn()
	c.wg.Wait()
}

// failureMessage is the user-visible text for a failed fetch.
func failureMessage(err error) string {
	var fe *domain.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return domain.FetchFailedMessage
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
