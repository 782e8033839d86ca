package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/export"
	"github.com/printdock/labelsync/internal/application/resolver"
	"github.com/printdock/labelsync/internal/application/sync"
	"github.com/printdock/labelsync/internal/config"
	"github.com/printdock/labelsync/internal/infrastructure/external/gdrive"
	"github.com/printdock/labelsync/internal/infrastructure/external/notion"
	"github.com/printdock/labelsync/internal/infrastructure/persistence/repository"
	"github.com/printdock/labelsync/internal/infrastructure/preview"
	"github.com/printdock/labelsync/internal/infrastructure/storage"
	httpapi "github.com/printdock/labelsync/internal/interfaces/http"
	"github.com/printdock/labelsync/pkg/database"
	"github.com/printdock/labelsync/pkg/utils"
)

func main() {
	// Load .env if present so local runs pick up NOTION_TOKEN et al.
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
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

	logger.Info("Starting label sync service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

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

	// Initialize catalog exporter
	exporter := export.NewCatalogExporter(productRepo, stickerRepo, logger)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize HTTP server
	srv := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, syncService, productRepo, stickerRepo, runRepo, store, exporter, logger)

	// Serve until an interrupt arrives, then shut down gracefully
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
