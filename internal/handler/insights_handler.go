package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/financetrack/financetrack-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Insights and natural-language queries
// ============================================================

func monthlyInsightsHandler(insightsSvc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/insights/monthly")
		defer span.End()

		userID := UserIDFromContext(ctx)

		now := time.Now()
		month := int(now.Month())
		year := now.Year()
		if v := r.URL.Query().Get("month"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				month = n
			}
		}
		if v := r.URL.Query().Get("year"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				year = n
			}
		}

		insights, err := insightsSvc.MonthlyInsights(ctx, userID, month, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, insights)
	}
}

type queryRequest struct {
	Question string `json:"question"`
}

func queryHandler(querySvc *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/insights/query")
		defer span.End()

		userID := UserIDFromContext(ctx)

		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		answer, err := querySvc.Ask(ctx, userID, req.Question)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, answer)
	}
}
