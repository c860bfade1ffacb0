package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/profile-banner/internal/svg"
	"github.com/naka-gawa/profile-banner/internal/usecase"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetches GitHub profile statistics and writes them into the SVG documents",
	Long: `Fetches every counter referenced by the configured fields, then rewrites each
configured SVG document in place. If any counter cannot be fetched, no
document is written. A document that is missing or cannot be parsed is
skipped with a warning.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)
		fs := afero.NewOsFs()

		cfg, collector, err := setup(cmd, fs, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		filler := svg.NewFiller(fs, logger.WithField("component", "svg"))
		updater := usecase.NewUpdater(collector, filler, logger)

		result, err := updater.Run(ctx, cfg.User, cfg.Counters(), cfg.Documents, cfg.Fields)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to update banner: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Updated %d of %d document(s) for %s\n", result.Written, len(cfg.Documents), cfg.User)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
