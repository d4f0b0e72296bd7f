package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adpulse/adpulse/internal/store"
	"github.com/adpulse/adpulse/pkg/config"
	"github.com/adpulse/adpulse/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long: `Create the marketing schema and its tables if they do not exist.

Example:
  go run ./cmd/adpulse migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := store.NewPostgres(db.Pool).Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	fmt.Println("Schema up to date")
	return nil
}
