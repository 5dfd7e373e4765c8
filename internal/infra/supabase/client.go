// Package supabase implements the record store ports against Supabase's
// PostgREST API. Every call runs inside the shared circuit breaker with
// retry + backoff.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/financetrack/financetrack-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST.
// It implements port.TransactionStore, port.RuleStore, port.CategoryStore,
// port.AccountStore, port.BudgetStore and port.AuthStore.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

func (c *Client) setHeaders(req *http.Request, prefer string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
}

// do executes one request against PostgREST and returns the raw body.
// 404/204 are "no data", not errors.
func (c *Client) do(ctx context.Context, method, path string, payload any, prefer string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, prefer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, fmt.Errorf("supabase %s %s returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// execute runs fn inside the breaker with retry + backoff.
func (c *Client) execute(ctx context.Context, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	return err
}

// getJSON fetches path and unmarshals the response into out.
// A "no data" response leaves out untouched.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.execute(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}
		if body == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		return nil
	})
}

// postJSON inserts a row and, when out is non-nil, decodes the returned
// representation into it.
func (c *Client) postJSON(ctx context.Context, table string, payload, out any) error {
	return c.execute(ctx, func() error {
		body, err := c.do(ctx, http.MethodPost, table, payload, "return=representation")
		if err != nil {
			return err
		}
		if out == nil || body == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding insert response for %s: %w", table, err)
		}
		return nil
	})
}

// patch updates rows matching path's filter.
func (c *Client) patch(ctx context.Context, path string, payload any) error {
	return c.execute(ctx, func() error {
		_, err := c.do(ctx, http.MethodPatch, path, payload, "return=minimal")
		return err
	})
}

// delete removes rows matching path's filter.
func (c *Client) delete(ctx context.Context, path string) error {
	return c.execute(ctx, func() error {
		_, err := c.do(ctx, http.MethodDelete, path, nil, "")
		return err
	})
}
