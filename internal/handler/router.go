package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/financetrack/financetrack-go/internal/infra/observability"
	"github.com/financetrack/financetrack-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the use-case services the router exposes.
type Services struct {
	Import         *service.ImportService
	Transactions   *service.TransactionsService
	Categorization *service.CategorizationService
	Rules          *service.RulesService
	Insights       *service.InsightsService
	Query          *service.QueryService
	Auth           *service.AuthService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Categorization))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Authentication (public)
		r.Post("/auth/register", authRegisterHandler(svcs.Auth, logger))
		r.Post("/auth/login", authLoginHandler(svcs.Auth, logger))
		r.Post("/auth/refresh", authRefreshHandler(svcs.Auth, logger))

		// Everything else requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			r.Post("/auth/logout", authLogoutHandler(svcs.Auth, logger))

			// CSV import + batch categorization
			r.Post("/transactions/upload", uploadTransactionsHandler(svcs.Import, logger))
			r.Post("/transactions/categorize", categorizeBatchHandler(svcs.Categorization, logger))

			// Transactions
			r.Get("/transactions", listTransactionsHandler(svcs.Transactions, logger))
			r.Post("/transactions", createTransactionHandler(svcs.Transactions, logger))
			r.Get("/transactions/{transactionId}", getTransactionHandler(svcs.Transactions, logger))
			r.Patch("/transactions/{transactionId}", updateTransactionHandler(svcs.Transactions, logger))
			r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svcs.Transactions, logger))

			// Rules
			r.Get("/rules", listRulesHandler(svcs.Rules, logger))
			r.Post("/rules", createRuleHandler(svcs.Rules, logger))
			r.Delete("/rules/{ruleId}", deleteRuleHandler(svcs.Rules, logger))

			// Categories
			r.Get("/categories", listCategoriesHandler(svcs.Categorization, logger))

			// Accounts
			r.Get("/accounts", listAccountsHandler(svcs.Transactions, logger))
			r.Post("/accounts", createAccountHandler(svcs.Transactions, logger))

			// Insights
			r.Get("/insights/monthly", monthlyInsightsHandler(svcs.Insights, logger))
			r.Post("/insights/query", queryHandler(svcs.Query, logger))

			// Operational counters for the current process
			r.Get("/stats/import", importStatsHandler(metrics))
		})
	})

	return r
}

func healthzHandler(catSvc *service.CategorizationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		status := "healthy"
		var latency int64
		if catSvc != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			start := time.Now()
			_, err := catSvc.ListCategories(ctx)
			latency = time.Since(start).Milliseconds()
			if err != nil {
				status = "degraded"
			}
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status":       status,
			"store_ms":     latency,
			"last_checked": now,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func importStatsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetImportSnapshot())
	}
}
