package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/financetrack/financetrack-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListBudgets returns the user's budgets for one calendar month.
func (c *Client) ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListBudgets",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("month", month),
			attribute.Int("year", year),
		))
	defer span.End()

	path := fmt.Sprintf("budgets?user_id=eq.%s&month=eq.%d&year=eq.%d",
		url.QueryEscape(userID), month, year)

	var rows []domain.Budget
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
