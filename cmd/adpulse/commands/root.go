package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "adpulse",
	Short: "Marketing performance analytics service",
	Long: `adpulse ingests marketing performance CSVs, validates and enriches
them with derived metrics, and serves aggregated views over HTTP.

Usage:
  go run ./cmd/adpulse [command]

Examples:
  go run ./cmd/adpulse api
  go run ./cmd/adpulse ingest campaigns.csv
  go run ./cmd/adpulse migrate
  go run ./cmd/adpulse status`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
