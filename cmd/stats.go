package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetches GitHub profile statistics and outputs them as JSON",
	Long:  `Fetches every counter referenced by the configured fields for the configured user and prints the snapshot in JSON format. No document is modified.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		cfg, collector, err := setup(cmd, afero.NewOsFs(), logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		snapshot, err := collector.Collect(ctx, cfg.User, cfg.Counters())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch stats: %v\n", err)
			os.Exit(1)
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}

		// Print the final JSON to standard output.
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
