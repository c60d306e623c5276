package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/partyshah/ai-math-tutor/internal/artifacts"
	"github.com/partyshah/ai-math-tutor/internal/logging"
)

func newCleanupCommand(cmdCtx *commandContext) *cobra.Command {
	var maxAgeHours int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired audio and slide-image sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			maxAge := time.Duration(cfg.Feedback.SessionMaxAgeHours) * time.Hour
			if maxAgeHours > 0 {
				maxAge = time.Duration(maxAgeHours) * time.Hour
			}

			store := artifacts.NewStore(cfg.AudioSessionsDir(), cfg.SlideImagesDir(), logging.NewNop())
			result, err := store.Sweep(maxAge)
			if err != nil {
				return fmt.Errorf("sweep artifacts: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d audio session(s) and %d image session(s) older than %s\n",
				result.AudioSessionsRemoved, result.ImageSessionsRemoved, maxAge)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeHours, "max-age-hours", 0, "Override the configured session retention in hours")
	return cmd
}
