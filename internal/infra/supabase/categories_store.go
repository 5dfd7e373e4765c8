package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/financetrack/financetrack-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListCategories returns the process-wide category set.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListCategories")
	defer span.End()

	var rows []domain.Category
	if err := c.getJSON(ctx, "categories?order=name.asc", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FindCategoryByName matches case-insensitively on a partial name.
// Returns nil when nothing matches.
func (c *Client) FindCategoryByName(ctx context.Context, pattern string) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "supabase.FindCategoryByName",
		trace.WithAttributes(attribute.String("category.pattern", pattern)))
	defer span.End()

	path := fmt.Sprintf("categories?name=ilike.%s&limit=1",
		url.QueryEscape("*"+pattern+"*"))

	var rows []domain.Category
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// SeedCategories inserts the default category set, skipping names that
// already exist.
func (c *Client) SeedCategories(ctx context.Context, categories []domain.Category) error {
	ctx, span := tracer.Start(ctx, "supabase.SeedCategories",
		trace.WithAttributes(attribute.Int("category.count", len(categories))))
	defer span.End()

	existing, err := c.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	return c.execute(ctx, func() error {
		_, err := c.do(ctx, "POST", "categories", categories, "return=minimal")
		return err
	})
}
