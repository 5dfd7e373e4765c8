package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// uploads larger than this are rejected before parsing
const maxUploadBytes = 10 << 20

// ============================================================
// CSV import
// ============================================================

func uploadTransactionsHandler(importSvc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/upload")
		defer span.End()

		userID := UserIDFromContext(ctx)

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		accountID := r.FormValue("account_id")
		if accountID == "" {
			writeError(w, http.StatusBadRequest, "account_id is required")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		raw, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read file")
			return
		}
		span.SetAttributes(
			attribute.String("upload.filename", header.Filename),
			attribute.Int("upload.bytes", len(raw)),
		)

		// Uploads categorize with AI by default; the suggester degrades to
		// "no category" when unconfigured, so this is safe without an agent.
		autoCategorize := formBool(r, "auto_categorize", true)
		useAI := formBool(r, "use_ai", true)

		result, err := importSvc.ImportCSV(ctx, userID, accountID, raw, autoCategorize, useAI)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func formBool(r *http.Request, name string, def bool) bool {
	switch r.FormValue(name) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return def
}

// ============================================================
// Transactions CRUD
// ============================================================

func listTransactionsHandler(txnSvc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		userID := UserIDFromContext(ctx)
		limit, offset := parsePagination(r)

		filter := domain.TransactionFilter{
			AccountID:  r.URL.Query().Get("account_id"),
			CategoryID: r.URL.Query().Get("category_id"),
			Limit:      limit,
			Offset:     offset,
		}
		if v := r.URL.Query().Get("start_date"); v != "" {
			if t, err := time.Parse("2006-01-02", v); err == nil {
				filter.StartDate = t
			}
		}
		if v := r.URL.Query().Get("end_date"); v != "" {
			if t, err := time.Parse("2006-01-02", v); err == nil {
				filter.EndDate = t
			}
		}

		txns, err := txnSvc.ListTransactions(ctx, userID, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"transactions": txns,
			"count":        len(txns),
		})
	}
}

func getTransactionHandler(txnSvc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{transactionId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		id := chi.URLParam(r, "transactionId")

		txn, err := txnSvc.GetTransaction(ctx, userID, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, txn)
	}
}

type createTransactionRequest struct {
	AccountID   string          `json:"account_id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  string          `json:"category_id"`
}

func createTransactionHandler(txnSvc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		userID := UserIDFromContext(ctx)

		var req createTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD or RFC3339")
			return
		}

		txn, err := txnSvc.CreateTransaction(ctx, userID, &domain.StoredTransaction{
			AccountID:   req.AccountID,
			Date:        date,
			Description: req.Description,
			Amount:      req.Amount,
			CategoryID:  req.CategoryID,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, txn)
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type updateTransactionRequest struct {
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
}

func updateTransactionHandler(txnSvc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/transactions/{transactionId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		id := chi.URLParam(r, "transactionId")

		var req updateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		txn, err := txnSvc.UpdateTransaction(ctx, userID, id, req.CategoryID, req.Description)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, txn)
	}
}

func deleteTransactionHandler(txnSvc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{transactionId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		id := chi.URLParam(r, "transactionId")

		if err := txnSvc.DeleteTransaction(ctx, userID, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Batch categorization
// ============================================================

type categorizeBatchRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
	UseAI          bool     `json:"use_ai"`
}

func categorizeBatchHandler(catSvc *service.CategorizationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/categorize")
		defer span.End()

		userID := UserIDFromContext(ctx)

		var req categorizeBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var result *domain.BatchResult
		if len(req.TransactionIDs) == 0 {
			var err error
			result, err = catSvc.CategorizeAllUncategorized(ctx, userID, req.UseAI)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
		} else {
			result = catSvc.CategorizeBatch(ctx, userID, req.TransactionIDs, req.UseAI)
		}

		writeJSON(w, http.StatusOK, result)
	}
}
