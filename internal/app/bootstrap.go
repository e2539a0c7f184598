package app

import (
	"context"
	"log/slog"
	"time"

	"coinsync/internal/anomaly"
	"coinsync/internal/domain"
	"coinsync/internal/engine"
	"coinsync/internal/infra"
	"coinsync/internal/infra/coingecko"
	"coinsync/internal/service"
)

// DefaultConfigPath is used when no path is given on the command line.
const DefaultConfigPath = "configs/config.yaml"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Metrics    *infra.Metrics
	Client     *coingecko.Client
	Store      *service.PaginationStore
	Alerts     *service.AlertLog
	Controller *engine.SyncController
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the configuration at path and wires every component.
func (b *Bootstrap) Initialize(path string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err // Let main handle the error
	}

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("🚀 Bootstrapping coinsync...", slog.String("version", cfg.App.Version))

	b.Wire(cfg)
	return nil
}

// Wire builds the client, store, alert log and controller from cfg.
// It does not touch the default logger.
func (b *Bootstrap) Wire(cfg *infra.Config) {
	b.Config = cfg
	b.Metrics = infra.NewMetrics()

	b.Client = coingecko.NewClient(cfg, coingecko.WithMetrics(b.Metrics))
	slog.Info("✅ Market data client ready", slog.String("base_url", cfg.API.CoinGecko.BaseURL))

	b.Store = service.NewPaginationStore()
	b.Alerts = service.NewAlertLog()
	detector := anomaly.NewDetector(cfg.Alerts.SpikeThreshold, cfg.Alerts.HighThreshold)

	b.Controller = engine.NewSyncController(b.Client, b.Store, b.Alerts, detector,
		engine.WithMaxRetries(cfg.Sync.MaxRetries),
		engine.WithBackoffBase(cfg.BackoffBase()),
		engine.WithLoadMoreDebounce(cfg.LoadMoreDebounce()),
		engine.WithMetrics(b.Metrics),
	)
	slog.Info("✅ Sync controller ready",
		slog.Int("max_retries", cfg.Sync.MaxRetries),
		slog.Duration("backoff_base", cfg.BackoffBase()),
	)
}

// DrainAlerts clears the alert log every display window until ctx ends,
// handing each non-empty batch to show first.
func (b *Bootstrap) DrainAlerts(ctx context.Context, show func([]domain.Alert)) {
	window := b.Config.AlertDisplayWindow()
	if window <= 0 {
		return
	}

	ticker := time.NewTicker(window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if alerts := b.Controller.Alerts(); len(alerts) > 0 {
				if show != nil {
					show(alerts)
				}
				n := b.Controller.ClearAlerts()
				slog.Debug("Alert window elapsed", slog.Int("cleared", n))
			}
		}
	}
}

// Shutdown stops background work owned by the controller.
func (b *Bootstrap) Shutdown() {
	if b.Controller != nil {
		b.Controller.Close()
	}
	if b.Metrics != nil {
		m := b.Metrics.Snapshot()
		slog.Info("📊 Sync metrics",
			slog.Uint64("fetches", m.Fetches),
			slog.Uint64("commits", m.Commits),
			slog.Uint64("rate_limited", m.RateLimited),
			slog.Uint64("retries", m.Retries),
			slog.Uint64("fetch_failures", m.FetchFailures),
			slog.Uint64("integrity_failures", m.IntegrityFailures),
			slog.Uint64("alerts", m.AlertsEmitted),
			slog.Duration("avg_fetch_latency", time.Duration(m.AvgFetchLatencyNs)),
		)
	}
}
