package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/infra/observability"
	"github.com/financetrack/financetrack-go/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var insightsTracer = otel.Tracer("service/insights")

const summaryUnavailable = "AI insights are not available."

// InsightsService aggregates already-categorized transactions into a monthly
// report and asks the agent for a natural-language summary.
type InsightsService struct {
	transactions port.TransactionStore
	budgets      port.BudgetStore
	categories   port.CategoryStore
	agent        port.InsightsAgent
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewInsightsService creates an insights service.
func NewInsightsService(
	transactions port.TransactionStore,
	budgets port.BudgetStore,
	categories port.CategoryStore,
	agent port.InsightsAgent,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *InsightsService {
	return &InsightsService{
		transactions: transactions,
		budgets:      budgets,
		categories:   categories,
		agent:        agent,
		metrics:      metrics,
		logger:       logger,
	}
}

// MonthlyInsights computes income/expense totals, the per-category expense
// breakdown, the ten largest expenses and the budget status for one month.
func (s *InsightsService) MonthlyInsights(ctx context.Context, userID string, month, year int) (*domain.MonthlyInsights, error) {
	ctx, span := insightsTracer.Start(ctx, "InsightsService.MonthlyInsights")
	defer span.End()
	span.SetAttributes(attribute.Int("month", month), attribute.Int("year", year))

	if month < 1 || month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be 1-12"}
	}

	var (
		txns       []domain.StoredTransaction
		budgets    []domain.Budget
		categories []domain.Category
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.transactions.ListByMonth(gCtx, userID, month, year)
		if err != nil {
			return fmt.Errorf("transactions fetch: %w", err)
		}
		txns = t
		return nil
	})
	g.Go(func() error {
		b, err := s.budgets.ListBudgets(gCtx, userID, month, year)
		if err != nil {
			return fmt.Errorf("budgets fetch: %w", err)
		}
		budgets = b
		return nil
	})
	g.Go(func() error {
		c, err := s.categories.ListCategories(gCtx)
		if err != nil {
			return fmt.Errorf("categories fetch: %w", err)
		}
		categories = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(txns) == 0 {
		return nil, &domain.ErrNotFound{
			Resource: "transactions",
			ID:       fmt.Sprintf("%d/%d", month, year),
		}
	}

	categoryNames := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	insights := &domain.MonthlyInsights{
		Month:       month,
		Year:        year,
		TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero,
	}

	// Expense totals per category name; only spend, not income.
	byCategory := map[string]decimal.Decimal{}
	var expenses []domain.StoredTransaction
	for _, t := range txns {
		if t.Amount.IsNegative() {
			insights.TotalExpenses = insights.TotalExpenses.Add(t.Amount.Abs())
			expenses = append(expenses, t)
			if name, ok := categoryNames[t.CategoryID]; ok && t.CategoryID != "" {
				byCategory[name] = byCategory[name].Add(t.Amount.Abs())
			}
		} else {
			insights.TotalIncome = insights.TotalIncome.Add(t.Amount)
		}
	}
	insights.NetIncome = insights.TotalIncome.Sub(insights.TotalExpenses)

	for name, amount := range byCategory {
		pct := 0.0
		if insights.TotalExpenses.IsPositive() {
			pct, _ = amount.Div(insights.TotalExpenses).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		}
		insights.CategoryBreakdown = append(insights.CategoryBreakdown, domain.CategorySlice{
			CategoryName: name,
			Amount:       amount,
			Percentage:   pct,
		})
	}
	sort.Slice(insights.CategoryBreakdown, func(i, j int) bool {
		return insights.CategoryBreakdown[i].Amount.GreaterThan(insights.CategoryBreakdown[j].Amount)
	})

	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Amount.Abs().GreaterThan(expenses[j].Amount.Abs())
	})
	for i, t := range expenses {
		if i == 10 {
			break
		}
		insights.TopExpenses = append(insights.TopExpenses, domain.ExpenseEntry{
			Description: t.Description,
			Amount:      t.Amount.Abs(),
			Date:        t.Date,
		})
	}

	for _, b := range budgets {
		name := categoryNames[b.CategoryID]
		if name == "" {
			continue
		}
		insights.BudgetStatus = append(insights.BudgetStatus, domain.BudgetStatusRow{
			CategoryName: name,
			Limit:        b.Limit,
			Spent:        b.Spent,
			Remaining:    b.Limit.Sub(b.Spent),
		})
	}

	insights.AISummary = s.generateSummary(ctx, insights)
	return insights, nil
}

// generateSummary asks the agent for a short narrative. Any failure falls
// back to a static message; insights never fail because the agent is down.
func (s *InsightsService) generateSummary(ctx context.Context, in *domain.MonthlyInsights) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a concise monthly financial summary for %d/%d.\n\n", in.Month, in.Year)
	fmt.Fprintf(&b, "Financial Data:\n")
	fmt.Fprintf(&b, "- Total Income: $%s\n", in.TotalIncome.StringFixed(2))
	fmt.Fprintf(&b, "- Total Expenses: $%s\n", in.TotalExpenses.StringFixed(2))
	fmt.Fprintf(&b, "- Net Income: $%s\n", in.NetIncome.StringFixed(2))
	b.WriteString("- Top Spending Categories:\n")
	for i, slice := range in.CategoryBreakdown {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "  - %s: $%s\n", slice.CategoryName, slice.Amount.StringFixed(2))
	}
	b.WriteString("\nWrite a 2-3 sentence summary highlighting key insights and spending patterns.")

	summary, err := s.agent.MonthlySummary(ctx, b.String())
	if err != nil {
		s.logger.Debug("monthly summary unavailable", zap.Error(err))
		return summaryUnavailable
	}
	return summary
}
