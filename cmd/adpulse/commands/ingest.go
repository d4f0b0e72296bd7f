package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adpulse/adpulse/internal/ingest"
	"github.com/adpulse/adpulse/internal/pipeline"
	"github.com/adpulse/adpulse/internal/store"
	"github.com/adpulse/adpulse/pkg/config"
	"github.com/adpulse/adpulse/pkg/database"
	"github.com/adpulse/adpulse/pkg/logger"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Ingest a marketing CSV file",
	Long: `Run a CSV file through the validation, cleaning and metric
derivation pipeline and append the accepted rows to the record store.

Expected columns: date, campaign_name, impressions, clicks, spend
Optional column:  revenue (defaults to 0)

Example:
  go run ./cmd/adpulse ingest campaigns.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

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
	if err := records.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ingest.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ingestor := pipeline.NewIngestor(records, records, log)
	result, err := ingestor.Run(cmd.Context(), filepath.Base(path), rows)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	fmt.Printf("Status:     %s\n", result.Outcome.Status)
	fmt.Printf("Submitted:  %d\n", result.Outcome.RowsSubmitted)
	fmt.Printf("Accepted:   %d\n", result.Outcome.RowsAccepted)
	fmt.Printf("Duplicates: %d\n", result.DroppedDuplicates)
	for _, re := range result.Rejected {
		fmt.Printf("  row %d rejected: %s\n", re.Index, re.Reason)
	}

	return nil
}
