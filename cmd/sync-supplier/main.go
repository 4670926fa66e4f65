package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/config"
	"github.com/jafarshop/dropshipapi/internal/repository/postgres"
	"github.com/jafarshop/dropshipapi/internal/service"
	"github.com/jafarshop/dropshipapi/internal/supplierclient"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/sync-supplier/main.go <integration-id>")
		fmt.Println("Pulls the supplier's catalog over the given integration and applies price/stock updates.")
		os.Exit(1)
	}

	integrationID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid integration ID: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	client := supplierclient.NewClient(logger)

	syncService := service.NewSyncService(repos, client, logger)
	result, err := syncService.SyncIntegration(context.Background(), integrationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Sync completed: %d/%d catalog entries applied\n", result.UpdatedCount, result.TotalRequested)
}
