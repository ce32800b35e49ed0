package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datapilot/datapilot/internal/agent"
	"github.com/datapilot/datapilot/internal/api"
	"github.com/datapilot/datapilot/internal/auth"
	"github.com/datapilot/datapilot/internal/catalog"
	"github.com/datapilot/datapilot/internal/config"
	"github.com/datapilot/datapilot/internal/memory"
	memorypostgres "github.com/datapilot/datapilot/internal/memory/postgres"
	"github.com/datapilot/datapilot/internal/nl2sql"
	"github.com/datapilot/datapilot/internal/observability"
	"github.com/datapilot/datapilot/internal/oracle"
	"github.com/datapilot/datapilot/internal/rank"
	s3store "github.com/datapilot/datapilot/internal/storage/s3"
	duckdbengine "github.com/datapilot/datapilot/internal/warehouse/duckdb"
)

func main() {
	cfg, err := config.LoadFromEnv("datapilot-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	memoryDB, err := memorypostgres.Open(context.Background(), memorypostgres.DBConfig{
		DSN:             cfg.Memory.DSN,
		MaxOpenConns:    cfg.Memory.MaxOpenConns,
		MaxIdleConns:    cfg.Memory.MaxIdleConns,
		ConnMaxIdleTime: cfg.Memory.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Memory.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open memory db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = memoryDB.Close() }()
	memoryStore := memorypostgres.NewRepository(memoryDB)

	objectStore, err := s3store.New(context.Background(), s3store.Config{
		Endpoint:         cfg.ObjectStore.Endpoint,
		Region:           cfg.ObjectStore.Region,
		Bucket:           cfg.ObjectStore.Bucket,
		AccessKeyID:      cfg.ObjectStore.AccessKeyID,
		SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
		UseSSL:           cfg.ObjectStore.UseSSL,
		Prefix:           cfg.ObjectStore.Prefix,
		AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
	})
	if err != nil {
		logger.Error("failed to initialize object store", slog.Any("error", err))
		os.Exit(1)
	}

	source := catalog.NewCachedSource(
		catalog.NewManifestSource(objectStore),
		memoryStore,
		cfg.Agent.SchemaCacheTTL,
		logger,
	)
	scorer := rank.LexicalScorer{}
	selector := &catalog.Selector{
		Scorer:            scorer,
		MaxTables:         cfg.Agent.MaxTables,
		DescriptionBudget: cfg.Agent.DescriptionBudget,
		ContextCharBudget: cfg.Agent.ContextCharBudget,
	}
	exampleSelector := &memory.ExampleSelector{
		Scorer:      scorer,
		MaxExamples: cfg.Agent.MaxExamples,
	}

	completer, err := oracle.NewClient(oracle.Config{
		BaseURL:      cfg.Oracle.BaseURL,
		APIKey:       cfg.Oracle.APIKey,
		Model:        cfg.Oracle.Model,
		Temperature:  cfg.Oracle.Temperature,
		Timeout:      cfg.Oracle.Timeout,
		MaxRetries:   cfg.Oracle.MaxRetries,
		RetryBackoff: cfg.Oracle.RetryBackoff,
	})
	if err != nil {
		logger.Error("failed to initialize oracle client", slog.Any("error", err))
		os.Exit(1)
	}

	orchestrator := agent.NewOrchestrator(
		source,
		selector,
		exampleSelector,
		memoryStore,
		nl2sql.NewGenerator(completer, cfg.Oracle.MaxOutputTokens),
		duckdbengine.NewEngine(objectStore),
		nl2sql.NewAnswerBuilder(completer, logger, cfg.Agent.AnswerSampleRows, cfg.Oracle.MaxOutputTokens),
		agent.NewSaver(memoryStore, logger),
		logger,
		agent.Config{
			MaxAttempts:  cfg.Agent.MaxAttempts,
			QueryTimeout: cfg.Warehouse.QueryTimeout,
			MaxRows:      cfg.Warehouse.MaxRows,
		},
	)

	deps := api.Dependencies{
		Logger:           logger,
		Agent:            orchestrator,
		Memory:           memoryStore,
		Catalog:          source,
		DefaultDatasetID: cfg.Warehouse.DatasetID,
		Readiness: api.CombineReadinessChecks(
			memoryStore.HealthCheck,
			api.CheckObjectStoreConfig(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
