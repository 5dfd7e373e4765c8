package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/infra/observability"
	"github.com/financetrack/financetrack-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func monthTxn(id, description, categoryID string, amount float64) domain.StoredTransaction {
	return domain.StoredTransaction{
		ID:          id,
		UserID:      testUser,
		AccountID:   testAccount,
		CategoryID:  categoryID,
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: description,
		Amount:      decimal.NewFromFloat(amount),
	}
}

func newInsightsFixture(store *memTransactionStore, budgets []domain.Budget, agent *mockAgent) *service.InsightsService {
	categories := &mockCategoryStore{categories: []domain.Category{
		{ID: "cat-food", Name: "Food & Dining"},
		{ID: "cat-rent", Name: "Housing"},
	}}
	return service.NewInsightsService(
		store,
		&mockBudgetStore{budgets: budgets},
		categories,
		agent,
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestMonthlyInsights_Totals(t *testing.T) {
	store := newMemTransactionStore()
	store.add(monthTxn("t1", "PAYCHECK", "", 3000))
	store.add(monthTxn("t2", "RENT", "cat-rent", -1200))
	store.add(monthTxn("t3", "GROCERIES", "cat-food", -300))
	store.add(monthTxn("t4", "COFFEE", "cat-food", -50))
	svc := newInsightsFixture(store, nil, &mockAgent{summary: "A solid month."})

	insights, err := svc.MonthlyInsights(context.Background(), testUser, 3, 2024)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if insights.TotalIncome.StringFixed(2) != "3000.00" {
		t.Errorf("income: got %s", insights.TotalIncome.StringFixed(2))
	}
	if insights.TotalExpenses.StringFixed(2) != "1550.00" {
		t.Errorf("expenses: got %s", insights.TotalExpenses.StringFixed(2))
	}
	if insights.NetIncome.StringFixed(2) != "1450.00" {
		t.Errorf("net: got %s", insights.NetIncome.StringFixed(2))
	}
	if insights.AISummary != "A solid month." {
		t.Errorf("summary: got %q", insights.AISummary)
	}
}

func TestMonthlyInsights_CategoryBreakdownSorted(t *testing.T) {
	store := newMemTransactionStore()
	store.add(monthTxn("t1", "RENT", "cat-rent", -1200))
	store.add(monthTxn("t2", "GROCERIES", "cat-food", -300))
	svc := newInsightsFixture(store, nil, &mockAgent{})

	insights, err := svc.MonthlyInsights(context.Background(), testUser, 3, 2024)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(insights.CategoryBreakdown) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(insights.CategoryBreakdown))
	}
	if insights.CategoryBreakdown[0].CategoryName != "Housing" {
		t.Errorf("largest category first, got %s", insights.CategoryBreakdown[0].CategoryName)
	}
	if insights.CategoryBreakdown[0].Percentage != 80.0 {
		t.Errorf("expected 80%%, got %v", insights.CategoryBreakdown[0].Percentage)
	}
	if insights.TopExpenses[0].Description != "RENT" {
		t.Errorf("largest expense first, got %s", insights.TopExpenses[0].Description)
	}
}

func TestMonthlyInsights_BudgetStatus(t *testing.T) {
	store := newMemTransactionStore()
	store.add(monthTxn("t1", "GROCERIES", "cat-food", -300))
	budgets := []domain.Budget{
		{CategoryID: "cat-food", Month: 3, Year: 2024,
			Limit: decimal.NewFromInt(400), Spent: decimal.NewFromInt(300)},
	}
	svc := newInsightsFixture(store, budgets, &mockAgent{})

	insights, err := svc.MonthlyInsights(context.Background(), testUser, 3, 2024)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(insights.BudgetStatus) != 1 {
		t.Fatalf("expected 1 budget row, got %d", len(insights.BudgetStatus))
	}
	if insights.BudgetStatus[0].Remaining.StringFixed(2) != "100.00" {
		t.Errorf("remaining: got %s", insights.BudgetStatus[0].Remaining.StringFixed(2))
	}
}

func TestMonthlyInsights_AgentFailureFallsBack(t *testing.T) {
	store := newMemTransactionStore()
	store.add(monthTxn("t1", "GROCERIES", "cat-food", -300))
	svc := newInsightsFixture(store, nil, &mockAgent{err: errors.New("agent down")})

	insights, err := svc.MonthlyInsights(context.Background(), testUser, 3, 2024)
	if err != nil {
		t.Fatalf("agent failure must not fail insights: %v", err)
	}
	if insights.AISummary != "AI insights are not available." {
		t.Errorf("expected fallback summary, got %q", insights.AISummary)
	}
}

func TestMonthlyInsights_NoTransactions(t *testing.T) {
	svc := newInsightsFixture(newMemTransactionStore(), nil, &mockAgent{})

	_, err := svc.MonthlyInsights(context.Background(), testUser, 3, 2024)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMonthlyInsights_InvalidMonth(t *testing.T) {
	svc := newInsightsFixture(newMemTransactionStore(), nil, &mockAgent{})

	_, err := svc.MonthlyInsights(context.Background(), testUser, 13, 2024)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
