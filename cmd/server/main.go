package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/api"
	"github.com/pharmgx-twin-server/internal/config"
	"github.com/pharmgx-twin-server/internal/database"
	"github.com/pharmgx-twin-server/internal/guidelines"
	"github.com/pharmgx-twin-server/internal/repository"
	"github.com/pharmgx-twin-server/internal/service"
	"github.com/pharmgx-twin-server/pkg/external"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
	}).Info("Starting pharmgx twin server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var db *database.DB
	if cfg.Database.Enabled {
		runner, err := database.NewMigrationRunner(cfg.DatabaseURL(), cfg.Database.MigrationsPath, logger)
		if err != nil {
			logger.Fatalf("Failed to create migration runner: %v", err)
		}
		if err := runner.Up(); err != nil {
			logger.Fatalf("Failed to apply migrations: %v", err)
		}
		runner.Close()

		db, err = database.NewConnection(ctx, cfg.Database, cfg.DatabaseDSN(), logger)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
	}

	dataset, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to load guideline dataset: %v", err)
	}
	logger.WithField("dataset_version", dataset.Version).Info("Guideline dataset loaded")

	explainer := buildExplainer(cfg, logger)

	simulator, err := service.NewPKSimulatorService(dataset, logger)
	if err != nil {
		logger.Fatalf("Failed to create PK simulator: %v", err)
	}

	assessment := service.NewAssessmentService(
		service.NewVariantParserService(logger),
		service.NewDiplotypeCallerService(logger),
		service.NewPhenotypeClassifierService(logger),
		service.NewRiskEvaluatorService(dataset, logger),
		simulator,
		dataset,
		explainer,
		logger,
	)

	var audit *repository.AuditRepository
	if db != nil {
		audit = repository.NewAuditRepository(db.Pool, logger)
	}

	server := api.NewServer(cfg, assessment, dataset, audit, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, shutting down gracefully")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

// loadDataset resolves the guideline dataset from the configured backend,
// seeding empty stores from the built-in snapshot.
func loadDataset(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*guidelines.Dataset, error) {
	switch cfg.Guidelines.Backend {
	case "sqlite":
		store, err := guidelines.NewSQLiteStore(cfg.Guidelines.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return loadOrSeed(ctx, store, logger)

	case "postgres":
		store, err := guidelines.NewPostgresStoreFromURL(cfg.DatabaseDSN())
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return loadOrSeed(ctx, store, logger)

	default:
		return guidelines.DefaultDataset(), nil
	}
}

func loadOrSeed(ctx context.Context, store guidelines.Store, logger *logrus.Logger) (*guidelines.Dataset, error) {
	version, err := store.Version(ctx)
	if err != nil {
		return nil, err
	}
	if version == "" {
		logger.Info("Guideline store is empty, seeding built-in dataset")
		if err := store.Save(ctx, guidelines.DefaultDataset()); err != nil {
			return nil, err
		}
	}
	return store.Load(ctx)
}

// buildExplainer wires the optional explanation side channel. Returns nil when
// disabled so the pipeline skips narratives entirely.
func buildExplainer(cfg *config.Config, logger *logrus.Logger) service.Explainer {
	if !cfg.Explain.Enabled {
		return nil
	}

	client := external.NewExplainClient(external.ExplainConfig{
		BaseURL:   cfg.Explain.BaseURL,
		APIKey:    cfg.Explain.APIKey,
		Model:     cfg.Explain.Model,
		Timeout:   cfg.Explain.Timeout,
		RateLimit: cfg.Explain.RateLimit,
	})

	var cache *external.CacheClient
	if cfg.Cache.Enabled {
		var err error
		cache, err = external.NewCacheClient(external.CacheConfig{
			RedisURL:    cfg.Cache.RedisURL,
			DefaultTTL:  cfg.Cache.DefaultTTL,
			MaxRetries:  cfg.Cache.MaxRetries,
			PoolSize:    cfg.Cache.PoolSize,
			PoolTimeout: cfg.Cache.PoolTimeout,
		})
		if err != nil {
			logger.WithError(err).Warn("Explanation cache unavailable, continuing without it")
			cache = nil
		}
	}

	return external.NewResilientExplainer(client, cache, logger)
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
