package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"coinsync/internal/domain"
)

// Refresher reloads page 1 on a fixed interval.
type Refresher struct {
	ctrl     *SyncController
	interval time.Duration
	onSynced func(domain.SyncState)
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRefresher creates a refresher for ctrl. onSynced, if set, receives the
// state after every refresh attempt.
func NewRefresher(ctrl *SyncController, interval time.Duration, onSynced func(domain.SyncState)) *Refresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Refresher{
		ctrl:     ctrl,
		interval: interval,
		onSynced: onSynced,
	}
}

// Start refreshes on every tick until ctx ends or Stop is called. The first
// refresh happens one interval after Start; callers load the initial pages.
func (r *Refresher) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Refresh loop panic recovered", slog.Any("panic", rec))
			}
		}()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Refresh loop stopped")
				return
			case <-ticker.C:
				r.refresh(ctx)
			}
		}
	}()
}

func (r *Refresher) refresh(ctx context.Context) {
	err := r.ctrl.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSyncInProgress):
		// A user-triggered sync is already running; skip this tick.
		return
	case ctx.Err() != nil:
		return
	default:
		slog.Warn("Scheduled refresh failed", slog.Any("error", err))
	}
	if r.onSynced != nil {
		r.onSynced(r.ctrl.Snapshot())
	}
}

// Stop stops the refresh loop and waits for it to exit.
func (r *Refresher) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.wg.Wait()
	}
}
