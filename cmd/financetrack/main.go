package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/financetrack/financetrack-go/internal/config"
	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/handler"
	"github.com/financetrack/financetrack-go/internal/infra/cache"
	"github.com/financetrack/financetrack-go/internal/infra/client"
	"github.com/financetrack/financetrack-go/internal/infra/observability"
	"github.com/financetrack/financetrack-go/internal/infra/resilience"
	"github.com/financetrack/financetrack-go/internal/infra/supabase"
	"github.com/financetrack/financetrack-go/internal/ingest"
	"github.com/financetrack/financetrack-go/internal/rules"
	"github.com/financetrack/financetrack-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("ai_enabled", cfg.AgentAPIURL != ""),
		zap.Duration("ai_timeout", cfg.AITimeout),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required: the record store has no fallback")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "financetrack")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	rulesCache := cache.New[[]domain.Rule](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	agentClient := client.NewAgentClient(httpClient, cfg.AgentAPIURL, cb, resilienceCfg)
	if !agentClient.Configured() {
		logger.Warn("agent API not configured: AI categorization, summaries and queries disabled")
	}

	// --- Seed reference data ---
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.SeedCategories(ctx, domain.DefaultCategories); err != nil {
			logger.Warn("seeding default categories failed", zap.Error(err))
		}
		cancel()
	}

	// --- Services ---
	importer := ingest.NewImporter(logger)
	engine := rules.NewEngine()

	categorizationSvc := service.NewCategorizationService(
		engine,
		store,
		store,
		store,
		agentClient,
		rulesCache,
		cfg.AITimeout,
		metrics,
		logger,
	)
	importSvc := service.NewImportService(importer, store, store, categorizationSvc, metrics, logger)
	transactionsSvc := service.NewTransactionsService(store, store, logger)
	rulesSvc := service.NewRulesService(store, categorizationSvc, logger)
	insightsSvc := service.NewInsightsService(store, store, store, agentClient, metrics, logger)
	querySvc := service.NewQueryService(store, agentClient, logger)
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Import:         importSvc,
		Transactions:   transactionsSvc,
		Categorization: categorizationSvc,
		Rules:          rulesSvc,
		Insights:       insightsSvc,
		Query:          querySvc,
		Auth:           authSvc,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
