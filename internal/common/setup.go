package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"deposit-desk-go/internal/auth"
	"deposit-desk-go/internal/database"
	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/promo"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services are the dependencies shared by every binary
type Services struct {
	DbService *database.Service
	Promos    *promo.Catalog
	Accounts  *auth.Service
}

// InitializeLogger builds the production logger at the given level
// ("debug", "info", "warn", "error") and installs it as zap.L()
func InitializeLogger(level string) (*zap.Logger, func()) {
	zapCfg := zap.NewProductionConfig()
	if level != "" {
		atomicLevel, err := zap.ParseAtomicLevel(level)
		if err != nil {
			log.Printf("Unknown log level %q, using info\n", level)
		} else {
			zapCfg.Level = atomicLevel
		}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Loading promo catalog", zap.String("path", cfg.Promo.CatalogFile))
	promos, err := promo.LoadCatalog(cfg.Promo.CatalogFile)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("failed to load promo catalog: %w", err)
	}
	zap.L().Info("Loaded promo codes", zap.Int("count", promos.Len()))

	accounts, err := auth.NewService(dbService, promos, auth.Config{
		Secret:   cfg.Http.JwtSecret,
		Issuer:   cfg.Http.JwtIssuer,
		TokenTtl: cfg.Http.TokenTtl,
	})
	if err != nil {
		dbService.Close()
		return nil, err
	}

	return &Services{
		DbService: dbService,
		Promos:    promos,
		Accounts:  accounts,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
