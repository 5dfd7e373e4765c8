package handler

import (
	"encoding/json"
	"net/http"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Categorization rules
// ============================================================

func listRulesHandler(rulesSvc *service.RulesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/rules")
		defer span.End()

		userID := UserIDFromContext(ctx)

		rules, err := rulesSvc.ListRules(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"rules": rules,
			"count": len(rules),
		})
	}
}

type createRuleRequest struct {
	Pattern     string `json:"pattern"`
	PatternType string `json:"pattern_type"`
	CategoryID  string `json:"category_id"`
	Priority    int    `json:"priority"`
}

func createRuleHandler(rulesSvc *service.RulesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/rules")
		defer span.End()

		userID := UserIDFromContext(ctx)

		var req createRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rule, err := rulesSvc.CreateRule(ctx, &domain.Rule{
			UserID:      userID,
			Pattern:     req.Pattern,
			PatternType: domain.PatternType(req.PatternType),
			CategoryID:  req.CategoryID,
			Priority:    req.Priority,
			IsActive:    true,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, rule)
	}
}

func deleteRuleHandler(rulesSvc *service.RulesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/rules/{ruleId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		ruleID := chi.URLParam(r, "ruleId")

		if err := rulesSvc.DeleteRule(ctx, userID, ruleID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
