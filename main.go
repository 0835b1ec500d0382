package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dashkit-io/board-engine/pkg/config"
	"github.com/dashkit-io/board-engine/pkg/crypto"
	"github.com/dashkit-io/board-engine/pkg/database"
	"github.com/dashkit-io/board-engine/pkg/handlers"
	"github.com/dashkit-io/board-engine/pkg/middleware"
	"github.com/dashkit-io/board-engine/pkg/repositories"
	"github.com/dashkit-io/board-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Database.Database))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure indexes", zap.Error(err))
	}

	cipher, err := crypto.NewSecretCipher(cfg.CredentialsKey)
	if err != nil {
		logger.Fatal("Failed to initialize credentials cipher", zap.Error(err))
	}

	registry := repositories.NewRegistry(db)
	authz := services.NewAuthorizer(cfg.SharedAPIKey)

	connectionService := services.NewConnectionService(registry, cipher, authz, logger)
	queryService := services.NewQueryService(registry, cipher, authz, logger)
	dashboardService := services.NewDashboardService(registry, authz, logger)
	folderService := services.NewFolderService(registry, authz, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewConnectionsHandler(connectionService, logger).RegisterRoutes(mux)
	handlers.NewQueriesHandler(queryService, logger).RegisterRoutes(mux)
	handlers.NewDashboardsHandler(dashboardService, logger).RegisterRoutes(mux)
	handlers.NewFoldersHandler(folderService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	logger.Info("Starting board-engine",
		zap.String("port", cfg.Port),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
