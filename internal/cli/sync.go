package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	ViewOptions
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Load pages once and print the matching records",
		Long: `Load page 1 (and further pages with --pages), print the records that
match --filter/--search, then print any alerts raised by the sync.

Example:
  coinsync sync --pages 3 --filter gainers -n 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	b, err := boot(opts.RootOptions)
	if err != nil {
		return err
	}
	defer b.Shutdown()

	ctrl := b.Controller
	syncErr := syncPages(cmd.Context(), ctrl, opts.Pages)
	if opts.SimulateAlert {
		ctrl.SimulateAlert()
	}

	out := cmd.OutOrStdout()
	writeRecords(out, ctrl.Filter(opts.view()), opts.Show)
	writeAlerts(out, ctrl.Alerts())

	if syncErr != nil {
		if msg := ctrl.Snapshot().Error; msg != "" {
			return fmt.Errorf("sync failed: %s: %w", msg, syncErr)
		}
		return fmt.Errorf("sync failed: %w", syncErr)
	}
	return nil
}
