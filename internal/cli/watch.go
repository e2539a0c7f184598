package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinsync/internal/domain"
	"coinsync/internal/engine"

	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	ViewOptions
	Interval time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh page 1 on an interval and report alerts",
		Long: `Load the requested pages, then refresh page 1 every --interval until
interrupted. Alerts are printed and cleared once per display window.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().DurationVarP(&opts.Interval, "interval", "i", time.Minute, "refresh interval")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	b, err := boot(opts.RootOptions)
	if err != nil {
		return err
	}
	defer b.Shutdown()

	// Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := &lockedWriter{w: cmd.OutOrStdout()}
	ctrl := b.Controller
	ctrl.OnUpdate(func(st domain.SyncState) {
		if st.Status != "" {
			slog.Warn(st.Status, slog.Int("retry", st.RetryCount))
		}
	})

	if err := syncPages(ctx, ctrl, opts.Pages); err != nil {
		slog.Error("Initial sync failed", slog.Any("error", err), slog.String("message", ctrl.Snapshot().Error))
	}
	writeRecords(out, ctrl.Filter(opts.view()), opts.Show)

	// Alert display window
	go b.DrainAlerts(ctx, func(alerts []domain.Alert) {
		writeAlerts(out, alerts)
	})

	refresher := engine.NewRefresher(ctrl, opts.Interval, func(domain.SyncState) {
		if opts.SimulateAlert {
			ctrl.SimulateAlert()
		}
		writeRecords(out, ctrl.Filter(opts.view()), opts.Show)
	})
	refresher.Start(ctx)
	defer refresher.Stop()

	slog.Info("✨ coinsync watching. Press Ctrl+C to exit.", slog.Duration("interval", opts.Interval))

	// Wait for shutdown signal
	<-ctx.Done()

	slog.Info("👋 Shutting down gracefully...")
	return nil
}
