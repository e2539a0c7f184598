package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Pages int
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <record-id>",
		Short: "Re-check the content hash of one record",
		Long: `Load pages, then recompute the content hash of the given record and
compare it with the hash stamped at fetch time.

Example:
  coinsync verify bitcoin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts, args[0])
		},
	}
	cmd.Flags().IntVarP(&opts.Pages, "pages", "p", 1, "number of pages to load before verifying")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *VerifyOptions, id string) error {
	b, err := boot(opts.RootOptions)
	if err != nil {
		return err
	}
	defer b.Shutdown()

	ctrl := b.Controller
	if err := syncPages(cmd.Context(), ctrl, opts.Pages); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	v, err := ctrl.VerifyOne(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	status := "✓ valid"
	if !v.IsValid {
		status = "✗ INVALID"
	}
	fmt.Fprintf(out, "%s: %s\n", id, status)
	fmt.Fprintf(out, "  stored:  %s\n", v.StoredHash)
	fmt.Fprintf(out, "  current: %s\n", v.CurrentHash)

	if !v.IsValid {
		return fmt.Errorf("record %s failed verification", id)
	}
	return nil
}
