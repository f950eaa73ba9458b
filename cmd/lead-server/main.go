package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsx "lead-crm/internal/common/aws"
	"lead-crm/internal/common/camunda"
	"lead-crm/internal/common/config"
	"lead-crm/internal/common/database"
	"lead-crm/internal/common/logger"
	"lead-crm/internal/common/observability"
	"lead-crm/internal/leads/api"
	"lead-crm/internal/leads/index"
	"lead-crm/internal/leads/notify"
	"lead-crm/internal/leads/service"
	"lead-crm/internal/leads/store"
	crmleadcreate "lead-crm/internal/workers/crm/crm-lead-create"
	"lead-crm/pkg/catalog"

	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	bootLog := logger.New("info", "console")
	defer bootLog.Sync()

	cfg, err := loadConfig()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting lead server...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	pgStore := store.NewPostgresStore(pg.GetDB(), log)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("failed to apply leads schema", zap.Error(err))
	}

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	var leadStore store.Store = pgStore
	if ttl := cfg.Leads.CacheTTLDuration(); ttl > 0 {
		leadStore = store.NewCachedStore(pgStore, rdb.GetClient(), ttl, log)
	}

	cat, err := catalog.LoadOrDefault(cfg.Leads.CatalogPath)
	if err != nil {
		zapLog.Fatal("failed to load lead catalog", zap.Error(err))
	}

	opts := service.Options{Logger: log}

	// --- Optional: Elasticsearch mirror ---
	var indexer *index.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch client init failed", zap.Error(err))
		}
		indexer = index.New(es.Client, cfg.Database.Elasticsearch.Index, log)
		if err := indexer.EnsureIndex(ctx); err != nil {
			zapLog.Warn("search index not ready, continuing", zap.Error(err))
		}
		opts.Indexer = indexer
	}

	// --- Optional: SES assignment e-mails ---
	if ses := cfg.Integrations.AWS.SES; ses.Enabled {
		sesClient, err := awsx.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		opts.Notifier = notify.NewAssignmentNotifier(sesClient, ses.FromEmail, ses.Assignees, log)
	}

	leadService := service.New(leadStore, cat, opts)

	// --- Optional: Zeebe worker ---
	var zeebe *camunda.Client
	var leadWorker *camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.Dial(ctx, camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}

		handler, err := crmleadcreate.NewHandler(crmleadcreate.HandlerOptions{
			AppConfig:     cfg,
			Camunda:       zeebe,
			Creator:       leadService,
			Logger:        log,
			Observability: obs,
		})
		if err != nil {
			zapLog.Fatal("failed to create crm-lead-create handler", zap.Error(err))
		}
		leadWorker = handler.Register(zeebe.GetClient())
	}

	// --- HTTP API ---
	deps := api.Deps{
		Service: leadService,
		Checks: map[string]api.Pinger{
			"postgres": pg,
			"redis":    rdb,
		},
		Logger:        log,
		Observability: obs,
	}
	if indexer != nil {
		deps.Searcher = indexer
	}
	if zeebe != nil {
		deps.Checks["zeebe"] = zeebe
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("Lead API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("Lead API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping lead server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if leadWorker != nil {
		leadWorker.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down metrics provider", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		zapLog.Error("Error closing Redis", zap.Error(err))
	}
	if err := pg.Close(); err != nil {
		zapLog.Error("Error closing PostgreSQL", zap.Error(err))
	}

	zapLog.Info("Lead server stopped gracefully")
}
