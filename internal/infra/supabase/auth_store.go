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

// userRow carries the password hash, which domain.User never serializes.
type userRow struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"password_hash"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		FullName:     r.FullName,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
	}
}

// GetUserByEmail fetches one user by email. Returns nil when no row matches.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "supabase.GetUserByEmail")
	defer span.End()

	path := fmt.Sprintf("users?email=eq.%s&limit=1", url.QueryEscape(email))

	var rows []userRow
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

// GetUserByID fetches one user by id. Returns nil when no row matches.
func (c *Client) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "supabase.GetUserByID",
		trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	path := fmt.Sprintf("users?id=eq.%s&limit=1", url.QueryEscape(id))

	var rows []userRow
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

// CreateUser persists a new user and returns the stored row.
func (c *Client) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "supabase.CreateUser",
		trace.WithAttributes(attribute.String("user.id", user.ID)))
	defer span.End()

	row := userRow{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		PasswordHash: user.PasswordHash,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
	}

	var rows []userRow
	if err := c.postJSON(ctx, "users", row, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return user, nil
	}
	return rows[0].toDomain(), nil
}

// StoreRefreshToken persists a hashed refresh token.
func (c *Client) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "supabase.StoreRefreshToken",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	payload := map[string]any{
		"user_id":    userID,
		"token_hash": tokenHash,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
		"revoked":    false,
	}
	return c.postJSON(ctx, "refresh_tokens", payload, nil)
}

// GetRefreshToken fetches a stored refresh token by its hash. Returns nil
// when no row matches.
func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	ctx, span := tracer.Start(ctx, "supabase.GetRefreshToken")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?token_hash=eq.%s&limit=1", url.QueryEscape(tokenHash))

	var rows []domain.AuthRefreshToken
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// RevokeRefreshToken marks one refresh token revoked.
func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "supabase.RevokeRefreshToken")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?token_hash=eq.%s", url.QueryEscape(tokenHash))
	return c.patch(ctx, path, map[string]any{"revoked": true})
}

// RevokeAllRefreshTokens marks all of the user's refresh tokens revoked.
func (c *Client) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "supabase.RevokeAllRefreshTokens",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?user_id=eq.%s&revoked=eq.false", url.QueryEscape(userID))
	return c.patch(ctx, path, map[string]any{"revoked": true})
}
