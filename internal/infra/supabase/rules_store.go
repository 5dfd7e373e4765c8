package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/financetrack/financetrack-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FindRulesByUser returns the user's active rules ordered by descending
// priority, creation order breaking ties.
func (c *Client) FindRulesByUser(ctx context.Context, userID string) ([]domain.Rule, error) {
	ctx, span := tracer.Start(ctx, "supabase.FindRulesByUser",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	path := fmt.Sprintf("categorization_rules?user_id=eq.%s&is_active=eq.true&order=priority.desc,created_at.asc",
		url.QueryEscape(userID))

	var rows []domain.Rule
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRules returns all of the user's rules, active or not.
func (c *Client) ListRules(ctx context.Context, userID string) ([]domain.Rule, error) {
	ctx, span := tracer.Start(ctx, "supabase.ListRules",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	path := fmt.Sprintf("categorization_rules?user_id=eq.%s&order=priority.desc,created_at.asc",
		url.QueryEscape(userID))

	var rows []domain.Rule
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateRule persists a new rule and returns the stored row.
func (c *Client) CreateRule(ctx context.Context, rule *domain.Rule) (*domain.Rule, error) {
	ctx, span := tracer.Start(ctx, "supabase.CreateRule",
		trace.WithAttributes(attribute.String("rule.id", rule.ID)))
	defer span.End()

	var rows []domain.Rule
	if err := c.postJSON(ctx, "categorization_rules", rule, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rule, nil
	}
	return &rows[0], nil
}

// DeleteRule removes one rule scoped to its owner.
func (c *Client) DeleteRule(ctx context.Context, userID, ruleID string) error {
	ctx, span := tracer.Start(ctx, "supabase.DeleteRule",
		trace.WithAttributes(attribute.String("rule.id", ruleID)))
	defer span.End()

	path := fmt.Sprintf("categorization_rules?id=eq.%s&user_id=eq.%s",
		url.QueryEscape(ruleID), url.QueryEscape(userID))
	return c.delete(ctx, path)
}
