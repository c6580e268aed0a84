package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mhutchins/pointflow/internal/cli"
)

func backfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Rebuild cap usage and the bonus ledger from history",
		Long: `Wipe a user's cap usage records and bonus point movements and
rebuild them by replaying the transaction history in date-ascending
order.

Cap clamping is order dependent, so backfill always replays oldest
first. Run it after bulk edits or rule corrections; do not run it while
new transactions for the same user are being committed.`,
		RunE: runBackfill,
	}

	cmd.Flags().String("user", "", "user ID to backfill (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Replaying transactions..."),
			)
		}
		_ = bar.Set(done)
	}

	if err := initEngine(store).Backfill(ctx, userID, progress); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Backfill complete for user %s", userID)))
	return nil
}
