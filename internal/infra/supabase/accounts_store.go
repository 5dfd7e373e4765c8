package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/financetrack/financetrack-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GetAccount fetches one account scoped to its owner. Returns nil when no
// row matches.
func (c *Client) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "supabase.GetAccount",
		trace.WithAttributes(attribute.String("account.id", accountID)))
	defer span.End()

	path := fmt.Sprintf("accounts?id=eq.%s&user_id=eq.%s&limit=1",
		url.QueryEscape(accountID), url.QueryEscape(userID))

	var rows []domain.Account
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListAccounts returns the user's accounts.
func (c *Client) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListAccounts",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	path := fmt.Sprintf("accounts?user_id=eq.%s&order=created_at.asc", url.QueryEscape(userID))

	var rows []domain.Account
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateAccount persists a new account and returns the stored row.
func (c *Client) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "supabase.CreateAccount",
		trace.WithAttributes(attribute.String("account.id", account.ID)))
	defer span.End()

	var rows []domain.Account
	if err := c.postJSON(ctx, "accounts", account, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return account, nil
	}
	return &rows[0], nil
}
