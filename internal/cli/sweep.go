package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/shelf/internal/entrypoint"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove orphaned books and chapters",
	Long: `Delete books whose author no longer exists and chapters whose book no
longer exists. Safe to run repeatedly; a clean catalog reports zero removals.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(app *entrypoint.App) error {
			result, err := app.Store.SweepOrphans(ctx)
			app.Activity.LogSweep(ctx, result, err)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", result)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
