// Package domain holds the core data model shared across the service:
// transactions, categorization rules, categories, and the result types
// produced by imports and batch categorization.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnKind distinguishes money leaving the account from money entering it.
// It is always derived from the amount's sign, never stored independently.
type TxnKind string

const (
	KindDebit  TxnKind = "debit"
	KindCredit TxnKind = "credit"
)

// KindForAmount returns the transaction kind implied by the amount's sign.
// Negative = debit (expense), zero or positive = credit (income).
func KindForAmount(amount decimal.Decimal) TxnKind {
	if amount.IsNegative() {
		return KindDebit
	}
	return KindCredit
}

// NormalizedTransaction is one successfully parsed CSV row, ready for
// reconciliation. Immutable once produced by the normalizer.
type NormalizedTransaction struct {
	AccountID   string          `json:"account_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // 2 fraction digits
	Kind        TxnKind         `json:"kind"`
}

// DedupKey is the business identity of a transaction within an account.
// Two rows with the same key are the same transaction re-imported.
func (t *NormalizedTransaction) DedupKey() DedupKey {
	return DedupKey{
		AccountID:   t.AccountID,
		Date:        t.Date,
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
	}
}

// DedupKey is compared structurally; Amount is the fixed 2-digit string so
// that 5.5 and 5.50 collapse to the same identity.
type DedupKey struct {
	AccountID   string
	Date        time.Time
	Amount      string
	Description string
}

// StoredTransaction is a transaction as persisted by the store.
type StoredTransaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	AccountID     string          `json:"account_id"`
	CategoryID    string          `json:"category_id,omitempty"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          TxnKind         `json:"transaction_type"`
	IsCategorized bool            `json:"is_categorized"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at,omitempty"`
}

// Rule is a user-owned auto-categorization rule. Higher priority rules are
// evaluated first; creation order breaks ties.
type Rule struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	CategoryID  string      `json:"category_id"`
	Pattern     string      `json:"pattern"`
	PatternType PatternType `json:"pattern_type"`
	Priority    int         `json:"priority"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
}

// PatternType selects the matching strategy for a rule.
type PatternType string

const (
	PatternContains   PatternType = "contains"
	PatternStartsWith PatternType = "starts_with"
	PatternExact      PatternType = "exact"
	PatternRegex      PatternType = "regex"
)

// ValidPatternType reports whether s is one of the supported strategies.
func ValidPatternType(s string) bool {
	switch PatternType(s) {
	case PatternContains, PatternStartsWith, PatternExact, PatternRegex:
		return true
	}
	return false
}

// Category is process-wide reference data shared by all users.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Account is a bank account owned by a user. Imports target one account.
type Account struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	AccountType string          `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
}

// Budget is a per-category monthly spending limit.
type Budget struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	CategoryID string          `json:"category_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
}

// ImportResult summarizes one CSV import call.
type ImportResult struct {
	Created int      `json:"transactions_created"`
	Updated int      `json:"transactions_updated"`
	Errors  []string `json:"errors"`
}

// BatchResult summarizes one batch categorization call. Never persisted.
type BatchResult struct {
	Categorized   int      `json:"categorized"`
	Uncategorized int      `json:"uncategorized"`
	Errors        []string `json:"errors"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
	Offset     int
}

// MonthlyInsights is the aggregated view served by the insights endpoint.
type MonthlyInsights struct {
	Month             int               `json:"month"`
	Year              int               `json:"year"`
	TotalIncome       decimal.Decimal   `json:"total_income"`
	TotalExpenses     decimal.Decimal   `json:"total_expenses"`
	NetIncome         decimal.Decimal   `json:"net_income"`
	CategoryBreakdown []CategorySlice   `json:"category_breakdown"`
	TopExpenses       []ExpenseEntry    `json:"top_expenses"`
	BudgetStatus      []BudgetStatusRow `json:"budget_status"`
	AISummary         string            `json:"ai_summary"`
}

// CategorySlice is one wedge of the spending breakdown.
type CategorySlice struct {
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
	Percentage   float64         `json:"percentage"`
}

// ExpenseEntry is one of the largest expenses of the month.
type ExpenseEntry struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

// BudgetStatusRow compares a budget limit against actual spend.
type BudgetStatusRow struct {
	CategoryName string          `json:"category_name"`
	Limit        decimal.Decimal `json:"limit"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
}

// QueryAnswer is the agent's response to a natural-language question.
type QueryAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
