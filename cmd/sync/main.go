package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/resolver"
	"github.com/printdock/labelsync/internal/application/sync"
	"github.com/printdock/labelsync/internal/config"
	"github.com/printdock/labelsync/internal/infrastructure/external/gdrive"
	"github.com/printdock/labelsync/internal/infrastructure/external/notion"
	"github.com/printdock/labelsync/internal/infrastructure/persistence/repository"
	"github.com/printdock/labelsync/internal/infrastructure/preview"
	"github.com/printdock/labelsync/internal/infrastructure/storage"
	"github.com/printdock/labelsync/pkg/database"
	"github.com/printdock/labelsync/pkg/utils"
)

// Runs a single sync pass from the command line, without the HTTP server.
// Useful for cron jobs and for re-populating the asset cache after a wipe.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	timeout := flag.Duration("timeout", 30*time.Minute, "Overall sync pass timeout")
	flag.Parse()

	// Load .env if present so local runs pick up NOTION_TOKEN et al.
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(context.Background(), cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Prepare the asset directories
	store := storage.NewLocalAssetStore(cfg.Storage.DataDir, logger)
	if err := store.EnsureLayout(); err != nil {
		logger.Fatal("Failed to prepare asset directories", zap.Error(err))
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db, logger)
	stickerRepo := repository.NewStickerRepository(db, logger)
	runRepo := repository.NewSyncRunRepository(db, logger)

	// Initialize Notion record source
	source := notion.NewClient(notion.Config{
		Token:      cfg.Notion.Token,
		DatabaseID: cfg.Notion.DatabaseID,
		PageSize:   cfg.Sync.PageSize,
		Timeout:    cfg.Notion.APITimeout,
	}, logger)

	// Initialize the download chain and asset resolver
	credentials := gdrive.NewFileCredentialSource(cfg.Drive.ServiceAccountFile)
	chain := gdrive.NewChain(logger, credentials, cfg.Drive.RequestTimeout)
	assetResolver := resolver.New(chain, store, logger)

	// Initialize preview generation
	previews := preview.NewGenerator(store, logger)

	// Initialize sync service
	syncService := sync.NewService(
		source,
		assetResolver,
		previews,
		productRepo,
		stickerRepo,
		runRepo,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := syncService.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Sync Report ===")
	fmt.Printf("Created: %d\n", report.Created)
	fmt.Printf("Updated: %d\n", report.Updated)
	fmt.Printf("Skipped: %d\n", report.Skipped)
	fmt.Printf("Errors:  %d\n", report.Errors)
	fmt.Printf("Total:   %d\n", report.Total())
}
