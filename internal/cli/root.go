// Package cli implements the coinsync command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"coinsync/internal/app"
	"coinsync/internal/domain"
	"coinsync/internal/engine"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// ViewOptions controls which records a command prints.
type ViewOptions struct {
	Pages         int
	Filter        string
	Search        string
	Show          int
	SimulateAlert bool
}

func (v *ViewOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&v.Pages, "pages", "p", 1, "number of pages to load")
	cmd.Flags().StringVar(&v.Filter, "filter", string(domain.FilterAll), "list filter (all|top|gainers|losers)")
	cmd.Flags().StringVarP(&v.Search, "search", "s", "", "case-insensitive name or symbol search")
	cmd.Flags().IntVarP(&v.Show, "show", "n", 10, "number of records to print")
	cmd.Flags().BoolVar(&v.SimulateAlert, "simulate-alert", false, "append a simulated alert after each sync")
}

func (v *ViewOptions) view() domain.Filter {
	return domain.Filter{Term: v.Search, Mode: domain.ParseFilterMode(v.Filter)}
}

// NewRootCommand creates the root command for the coinsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "coinsync",
		Short: "Paginated, integrity-checked market data sync",
		Long: `coinsync pulls market pages from CoinGecko, stamps and verifies a
content hash on every record, and flags large swings in 24h change
between refreshes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", app.DefaultConfigPath, "path to config.yaml")

	// Add subcommands
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}

func boot(opts *RootOptions) (*app.Bootstrap, error) {
	b := app.NewBootstrap()
	if err := b.Initialize(opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return b, nil
}

// syncPages refreshes page 1, then loads further pages while the upstream
// keeps returning full pages.
func syncPages(ctx context.Context, ctrl *engine.SyncController, pages int) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	for i := 1; i < pages; i++ {
		st := ctrl.Snapshot()
		if !st.HasMore {
			break
		}
		err := ctrl.Sync(ctx, st.NextPage())
		if errors.Is(err, domain.ErrSyncInProgress) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
