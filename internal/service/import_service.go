// Package service provides the business logic layer (use cases):
// CSV import with duplicate reconciliation, transaction categorization,
// rules and category management, monthly insights, and auth.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/infra/observability"
	"github.com/financetrack/financetrack-go/internal/ingest"
	"github.com/financetrack/financetrack-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var importTracer = otel.Tracer("service/import")

// ImportService runs the full CSV ingestion pipeline: parse, reconcile
// against stored transactions, and optionally categorize what was created.
type ImportService struct {
	importer     *ingest.Importer
	transactions port.TransactionStore
	accounts     port.AccountStore
	categorizer  *CategorizationService
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewImportService creates an import service.
func NewImportService(
	importer *ingest.Importer,
	transactions port.TransactionStore,
	accounts port.AccountStore,
	categorizer *CategorizationService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		importer:     importer,
		transactions: transactions,
		accounts:     accounts,
		categorizer:  categorizer,
		metrics:      metrics,
		logger:       logger,
	}
}

// ImportCSV parses raw CSV bytes and upserts each record into the account.
// Records matching an existing DedupKey update that transaction (a re-import
// is a correction, not a duplicate); the rest are inserted uncategorized.
// Row-level parse failures are reported in the result, never fatal.
func (s *ImportService) ImportCSV(ctx context.Context, userID, accountID string, raw []byte, autoCategorize, useAI bool) (*domain.ImportResult, error) {
	ctx, span := importTracer.Start(ctx, "ImportService.ImportCSV")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.id", accountID),
		attribute.Int("bytes", len(raw)),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("import_csv", time.Since(start))
	}()

	// The account must exist and belong to the importing user.
	account, err := s.accounts.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}

	records, rowErrors, err := s.importer.Import(raw, accountID)
	if err != nil {
		s.logger.Warn("csv import rejected",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.AddRowsImported(len(records))
	s.metrics.AddRowsFailed(len(rowErrors))

	result := &domain.ImportResult{Errors: make([]string, 0, len(rowErrors))}
	for _, re := range rowErrors {
		result.Errors = append(result.Errors, re.Error())
	}

	var createdIDs []string
	for i := range records {
		id, created, err := s.reconcile(ctx, userID, &records[i])
		if err != nil {
			// A store failure on one record does not abort the rest of
			// the statement; it is reported alongside the row errors.
			result.Errors = append(result.Errors, fmt.Sprintf("importing %q: %v", records[i].Description, err))
			continue
		}
		if created {
			result.Created++
			createdIDs = append(createdIDs, id)
		} else {
			result.Updated++
		}
	}
	s.metrics.AddTransactionsCreated(result.Created)
	s.metrics.AddTransactionsUpdated(result.Updated)

	s.logger.Info("csv import finished",
		zap.String("user_id", userID),
		zap.String("account_id", accountID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)

	if autoCategorize && len(createdIDs) > 0 {
		batch := s.categorizer.CategorizeBatch(ctx, userID, createdIDs, useAI)
		s.logger.Info("post-import categorization",
			zap.String("account_id", accountID),
			zap.Int("categorized", batch.Categorized),
			zap.Int("uncategorized", batch.Uncategorized),
		)
	}

	return result, nil
}

// reconcile upserts one normalized record keyed on its business identity.
// Returns the stored id and whether a new row was created.
func (s *ImportService) reconcile(ctx context.Context, userID string, txn *domain.NormalizedTransaction) (string, bool, error) {
	existing, err := s.transactions.FindByDedupKey(ctx, txn.DedupKey())
	if err != nil {
		return "", false, fmt.Errorf("dedup lookup: %w", err)
	}

	if existing != nil {
		fields := map[string]any{
			"date":             txn.Date.Format(time.RFC3339),
			"description":      txn.Description,
			"amount":           txn.Amount.StringFixed(2),
			"transaction_type": string(txn.Kind),
		}
		if err := s.transactions.UpdateFields(ctx, existing.ID, fields); err != nil {
			return "", false, fmt.Errorf("update: %w", err)
		}
		return existing.ID, false, nil
	}

	stored := &domain.StoredTransaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		AccountID:     txn.AccountID,
		Date:          txn.Date,
		Description:   txn.Description,
		Amount:        txn.Amount,
		Kind:          txn.Kind,
		IsCategorized: false,
	}
	inserted, err := s.transactions.Insert(ctx, stored)
	if err != nil {
		return "", false, fmt.Errorf("insert: %w", err)
	}
	return inserted.ID, true, nil
}
