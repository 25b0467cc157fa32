package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/studyshare/backend/internal/app"
)

func SweepCmd() *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove stored blobs that no file record references",
		Long: "Remove stored blobs that no file record references.\n\n" +
			"Only blobs older than the grace window are removed, so uploads still in flight are kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			if !cmd.Flags().Changed("grace") {
				grace = cfg.SweepGrace
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.AssetService.SweepOrphans(cmd.Context(), grace)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}

			slog.Info("sweep finished", "removed", removed, "grace", grace)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphaned blob(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", 0, "minimum blob age before removal; defaults to SWEEP_GRACE")
	return cmd
}
