package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FindByDedupKey looks up a transaction by its business identity within an
// account. Returns nil when no row matches.
func (c *Client) FindByDedupKey(ctx context.Context, key domain.DedupKey) (*domain.StoredTransaction, error) {
	ctx, span := tracer.Start(ctx, "supabase.FindByDedupKey",
		trace.WithAttributes(attribute.String("account.id", key.AccountID)))
	defer span.End()

	path := fmt.Sprintf("transactions?account_id=eq.%s&date=eq.%s&amount=eq.%s&description=eq.%s&limit=1",
		url.QueryEscape(key.AccountID),
		url.QueryEscape(key.Date.Format(time.RFC3339)),
		url.QueryEscape(key.Amount),
		url.QueryEscape(key.Description),
	)

	var rows []domain.StoredTransaction
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Insert persists a new transaction and returns the stored row.
func (c *Client) Insert(ctx context.Context, txn *domain.StoredTransaction) (*domain.StoredTransaction, error) {
	ctx, span := tracer.Start(ctx, "supabase.InsertTransaction",
		trace.WithAttributes(attribute.String("transaction.id", txn.ID)))
	defer span.End()

	var rows []domain.StoredTransaction
	if err := c.postJSON(ctx, "transactions", txn, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return txn, nil
	}
	return &rows[0], nil
}

// UpdateFields overwrites mutable fields of an existing transaction.
func (c *Client) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "supabase.UpdateTransaction",
		trace.WithAttributes(attribute.String("transaction.id", id)))
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s", url.QueryEscape(id))
	return c.patch(ctx, path, fields)
}

// SetCategory assigns a category and flips the categorized flag.
func (c *Client) SetCategory(ctx context.Context, transactionID, categoryID string) error {
	ctx, span := tracer.Start(ctx, "supabase.SetCategory",
		trace.WithAttributes(attribute.String("transaction.id", transactionID)))
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s", url.QueryEscape(transactionID))
	return c.patch(ctx, path, map[string]any{
		"category_id":    categoryID,
		"is_categorized": true,
		"updated_at":     time.Now().UTC().Format(time.RFC3339),
	})
}

// GetTransaction fetches one transaction scoped to its owner.
// Returns nil when no row matches.
func (c *Client) GetTransaction(ctx context.Context, userID, id string) (*domain.StoredTransaction, error) {
	ctx, span := tracer.Start(ctx, "supabase.GetTransaction",
		trace.WithAttributes(attribute.String("transaction.id", id)))
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s&limit=1",
		url.QueryEscape(id), url.QueryEscape(userID))

	var rows []domain.StoredTransaction
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListTransactions returns the user's transactions newest first, narrowed by
// the filter.
func (c *Client) ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.StoredTransaction, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListTransactions",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	if filter.AccountID != "" {
		q.Set("account_id", "eq."+filter.AccountID)
	}
	if filter.CategoryID != "" {
		q.Set("category_id", "eq."+filter.CategoryID)
	}
	if !filter.StartDate.IsZero() {
		q.Set("date", "gte."+filter.StartDate.Format(time.RFC3339))
	}
	if !filter.EndDate.IsZero() {
		q.Add("date", "lte."+filter.EndDate.Format(time.RFC3339))
	}
	q.Set("order", "date.desc")
	if filter.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", filter.Offset))
	}

	var rows []domain.StoredTransaction
	if err := c.getJSON(ctx, "transactions?"+q.Encode(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListUncategorizedIDs returns the ids of the user's uncategorized
// transactions, oldest first.
func (c *Client) ListUncategorizedIDs(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListUncategorizedIDs",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&is_categorized=eq.false&select=id&order=date.asc",
		url.QueryEscape(userID))

	var rows []struct {
		ID string `json:"id"`
	}
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ListByMonth returns all of the user's transactions within the calendar
// month.
func (c *Client) ListByMonth(ctx context.Context, userID string, month, year int) ([]domain.StoredTransaction, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListByMonth",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("month", month),
			attribute.Int("year", year),
		))
	defer span.End()

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Add("date", "gte."+start.Format(time.RFC3339))
	q.Add("date", "lt."+end.Format(time.RFC3339))
	q.Set("order", "date.asc")

	var rows []domain.StoredTransaction
	if err := c.getJSON(ctx, "transactions?"+q.Encode(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteTransaction removes one transaction scoped to its owner.
func (c *Client) DeleteTransaction(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "supabase.DeleteTransaction",
		trace.WithAttributes(attribute.String("transaction.id", id)))
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s",
		url.QueryEscape(id), url.QueryEscape(userID))
	return c.delete(ctx, path)
}
