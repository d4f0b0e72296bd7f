package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adpulse/adpulse/internal/contracts"
	"github.com/adpulse/adpulse/internal/query"
	"github.com/adpulse/adpulse/internal/store"
	"github.com/adpulse/adpulse/pkg/config"
	"github.com/adpulse/adpulse/pkg/database"
	"github.com/adpulse/adpulse/pkg/logger"
	"github.com/adpulse/adpulse/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store totals and recent ingest outcomes",
	Long: `Print the current record totals and the most recent ingest
outcomes from the store.

Example:
  go run ./cmd/adpulse status
  go run ./cmd/adpulse status --outcomes 10`,
	RunE: runStatus,
}

var statusOutcomes int

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusOutcomes, "outcomes", 5, "number of recent ingest outcomes to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	records := store.NewPostgres(db.Pool)
	queries := query.NewService(records, records, redis.NewCache(redis.Disabled(), "adpulse"), log)

	sum, err := queries.Summary(cmd.Context(), contracts.RecordFilter{})
	if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}

	fmt.Println("=== adpulse store status ===")
	fmt.Printf("Records:     %d\n", sum.RecordCount)
	fmt.Printf("Campaigns:   %d\n", sum.CampaignCount)
	fmt.Printf("Impressions: %d\n", sum.TotalImpressions)
	fmt.Printf("Clicks:      %d\n", sum.TotalClicks)
	fmt.Printf("Spend:       %.2f\n", sum.TotalSpend)
	fmt.Printf("Revenue:     %.2f\n", sum.TotalRevenue)

	outcomes, err := queries.RecentOutcomes(cmd.Context(), statusOutcomes)
	if err != nil {
		return fmt.Errorf("load ingest outcomes: %w", err)
	}

	fmt.Printf("\nRecent ingests (%d):\n", len(outcomes))
	for _, o := range outcomes {
		fmt.Printf("  %s  %-8s %s (%d/%d rows)\n",
			o.Timestamp.Format("2006-01-02 15:04:05"),
			o.Status, o.SourceName, o.RowsAccepted, o.RowsSubmitted)
	}

	return nil
}
