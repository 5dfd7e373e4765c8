package service

import (
	"context"
	"strings"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var txnTracer = otel.Tracer("service/transactions")

// TransactionsService covers manual transaction CRUD outside the import
// pipeline.
type TransactionsService struct {
	transactions port.TransactionStore
	accounts     port.AccountStore
	logger       *zap.Logger
}

// NewTransactionsService creates a transactions service.
func NewTransactionsService(transactions port.TransactionStore, accounts port.AccountStore, logger *zap.Logger) *TransactionsService {
	return &TransactionsService{transactions: transactions, accounts: accounts, logger: logger}
}

// ListTransactions returns the user's transactions, newest first.
func (s *TransactionsService) ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.StoredTransaction, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionsService.ListTransactions")
	defer span.End()

	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.transactions.ListTransactions(ctx, userID, filter)
}

// GetTransaction returns one transaction owned by the user.
func (s *TransactionsService) GetTransaction(ctx context.Context, userID, id string) (*domain.StoredTransaction, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionsService.GetTransaction")
	defer span.End()

	txn, err := s.transactions.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return txn, nil
}

// CreateTransaction adds a single transaction manually.
func (s *TransactionsService) CreateTransaction(ctx context.Context, userID string, txn *domain.StoredTransaction) (*domain.StoredTransaction, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionsService.CreateTransaction")
	defer span.End()

	if strings.TrimSpace(txn.Description) == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "description is required"}
	}
	if txn.Date.IsZero() {
		return nil, &domain.ErrValidation{Field: "date", Message: "date is required"}
	}

	account, err := s.accounts.GetAccount(ctx, userID, txn.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &domain.ErrNotFound{Resource: "account", ID: txn.AccountID}
	}

	txn.ID = uuid.NewString()
	txn.UserID = userID
	txn.Amount = txn.Amount.Round(2)
	txn.Kind = domain.KindForAmount(txn.Amount)
	txn.IsCategorized = txn.CategoryID != ""

	return s.transactions.Insert(ctx, txn)
}

// UpdateTransaction changes the category and/or description of an existing
// transaction. Assigning a category marks it categorized.
func (s *TransactionsService) UpdateTransaction(ctx context.Context, userID, id, categoryID, description string) (*domain.StoredTransaction, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionsService.UpdateTransaction")
	defer span.End()

	existing, err := s.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if categoryID != "" {
		fields["category_id"] = categoryID
		fields["is_categorized"] = true
	}
	if description != "" {
		fields["description"] = description
	}
	if len(fields) == 0 {
		return existing, nil
	}
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	if err := s.transactions.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, userID, id)
}

// DeleteTransaction removes a transaction owned by the user.
func (s *TransactionsService) DeleteTransaction(ctx context.Context, userID, id string) error {
	ctx, span := txnTracer.Start(ctx, "TransactionsService.DeleteTransaction")
	defer span.End()

	if _, err := s.GetTransaction(ctx, userID, id); err != nil {
		return err
	}

	err := s.transactions.DeleteTransaction(ctx, userID, id)
	if err != nil {
		s.logger.Error("failed to delete transaction",
			zap.String("user_id", userID),
			zap.String("transaction_id", id),
			zap.Error(err),
		)
	}
	return err
}

// ListAccounts returns the user's accounts.
func (s *TransactionsService) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionsService.ListAccounts")
	defer span.End()

	return s.accounts.ListAccounts(ctx, userID)
}

// CreateAccount adds a bank account for the user.
func (s *TransactionsService) CreateAccount(ctx context.Context, userID, name, accountType string) (*domain.Account, error) {
	ctx, span := txnTracer.Start(ctx, "TransactionsService.CreateAccount")
	defer span.End()

	if strings.TrimSpace(name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if accountType == "" {
		accountType = "checking"
	}

	return s.accounts.CreateAccount(ctx, &domain.Account{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		AccountType: accountType,
		Balance:     decimal.Zero,
	})
}
