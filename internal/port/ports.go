// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
)

// TransactionStore is the abstract record store for transactions.
// The reconciler and the categorization orchestrator are its only writers.
type TransactionStore interface {
	// FindByDedupKey returns the stored transaction with the given business
	// identity, or nil when none exists.
	FindByDedupKey(ctx context.Context, key domain.DedupKey) (*domain.StoredTransaction, error)
	Insert(ctx context.Context, txn *domain.StoredTransaction) (*domain.StoredTransaction, error)
	// UpdateFields overwrites mutable fields of an existing transaction.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	SetCategory(ctx context.Context, transactionID, categoryID string) error

	GetTransaction(ctx context.Context, userID, id string) (*domain.StoredTransaction, error)
	ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.StoredTransaction, error)
	ListUncategorizedIDs(ctx context.Context, userID string) ([]string, error)
	ListByMonth(ctx context.Context, userID string, month, year int) ([]domain.StoredTransaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// RuleStore persists user-owned categorization rules.
type RuleStore interface {
	// FindRulesByUser returns the user's active rules ordered by descending
	// priority, creation order breaking ties.
	FindRulesByUser(ctx context.Context, userID string) ([]domain.Rule, error)
	ListRules(ctx context.Context, userID string) ([]domain.Rule, error)
	CreateRule(ctx context.Context, rule *domain.Rule) (*domain.Rule, error)
	DeleteRule(ctx context.Context, userID, ruleID string) error
}

// CategoryStore serves the process-wide category reference data.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	// FindCategoryByName matches case-insensitively on a partial name.
	FindCategoryByName(ctx context.Context, pattern string) (*domain.Category, error)
	SeedCategories(ctx context.Context, categories []domain.Category) error
}

// AccountStore persists bank accounts.
type AccountStore interface {
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

// BudgetStore reads per-category monthly budgets for insights.
type BudgetStore interface {
	ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.Budget, error)
}

// AuthStore persists users and refresh tokens.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)

	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// CategorySuggester is the external AI categorization capability.
// Implementations must be safe to call with no backend configured, returning
// *domain.ErrCategorizationUnavailable instead of panicking or hanging.
type CategorySuggester interface {
	SuggestCategory(ctx context.Context, description string, categoryNames []string) (string, error)
}

// InsightsAgent generates natural-language output from financial data.
type InsightsAgent interface {
	MonthlySummary(ctx context.Context, prompt string) (string, error)
	Query(ctx context.Context, question string, transactions []domain.StoredTransaction) (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
