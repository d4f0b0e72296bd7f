package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adpulse/adpulse/internal/api"
	"github.com/adpulse/adpulse/internal/api/handlers"
	"github.com/adpulse/adpulse/internal/pipeline"
	"github.com/adpulse/adpulse/internal/query"
	"github.com/adpulse/adpulse/internal/scheduler"
	"github.com/adpulse/adpulse/internal/scheduler/jobs"
	"github.com/adpulse/adpulse/internal/store"
	"github.com/adpulse/adpulse/pkg/config"
	"github.com/adpulse/adpulse/pkg/database"
	"github.com/adpulse/adpulse/pkg/logger"
	"github.com/adpulse/adpulse/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                 - Health check
  POST /api/upload             - Upload a marketing CSV batch
  GET  /api/records            - Filtered record listing
  GET  /api/summary            - Cross-record summary
  GET  /api/campaigns          - Distinct campaign names
  GET  /api/daily              - Daily performance rollup
  GET  /api/top-campaigns      - Campaign ranking by metric
  GET  /api/ingest-log         - Recent ingest outcomes

Example:
  go run ./cmd/adpulse api
  go run ./cmd/adpulse api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	cache, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer cache.Close()

	records := store.NewPostgres(db.Pool)
	if err := records.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	ingestor := pipeline.NewIngestor(records, records, log)
	queries := query.NewService(records, records, redis.NewCache(cache, "adpulse"), log)

	uploadHandler := handlers.NewUploadHandler(ingestor, queries, log)
	queryHandler := handlers.NewQueryHandler(queries, log)

	router := api.NewRouter(cfg, uploadHandler, queryHandler, log)
	server := api.New(cfg, log, router)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewIngestLogRetentionJob(records, cfg.IngestLogRetentionDays, log)); err != nil {
		return fmt.Errorf("schedule retention job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
