// Package client holds HTTP clients for external services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// AgentClient calls the AI agent service for category suggestions and
// natural-language insights. With no base URL configured every call returns
// *domain.ErrCategorizationUnavailable without touching the network.
type AgentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewAgentClient creates a new AgentClient. baseURL may be empty.
func NewAgentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AgentClient {
	return &AgentClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// Configured reports whether a backend URL is set.
func (c *AgentClient) Configured() bool {
	return c.baseURL != ""
}

type suggestRequest struct {
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

type suggestResponse struct {
	Category string `json:"category"`
}

// SuggestCategory asks the agent to pick a category name for a transaction
// description. The returned name may match the offered list only partially.
func (c *AgentClient) SuggestCategory(ctx context.Context, description string, categoryNames []string) (string, error) {
	if !c.Configured() {
		return "", &domain.ErrCategorizationUnavailable{Reason: "agent API not configured"}
	}

	ctx, span := tracer.Start(ctx, "AgentClient.SuggestCategory")
	defer span.End()
	span.SetAttributes(attribute.Int("categories.count", len(categoryNames)))

	var out suggestResponse
	err := c.post(ctx, "/v1/agent/categorize", suggestRequest{
		Description: description,
		Categories:  categoryNames,
	}, &out)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(out.Category)
	if name == "" {
		return "", &domain.ErrCategorizationUnavailable{Reason: "agent returned no category"}
	}
	return name, nil
}

type summaryRequest struct {
	Prompt string `json:"prompt"`
}

type agentTextResponse struct {
	Text string `json:"text"`
}

// MonthlySummary asks the agent for a narrative over the prepared monthly
// figures.
func (c *AgentClient) MonthlySummary(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", &domain.ErrCategorizationUnavailable{Reason: "agent API not configured"}
	}

	ctx, span := tracer.Start(ctx, "AgentClient.MonthlySummary")
	defer span.End()

	var out agentTextResponse
	if err := c.post(ctx, "/v1/agent/summary", summaryRequest{Prompt: prompt}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

type queryRequest struct {
	Question     string                     `json:"question"`
	Transactions []domain.StoredTransaction `json:"transactions"`
}

// Query answers a natural-language question grounded on the user's recent
// transactions.
func (c *AgentClient) Query(ctx context.Context, question string, transactions []domain.StoredTransaction) (string, error) {
	if !c.Configured() {
		return "", &domain.ErrCategorizationUnavailable{Reason: "agent API not configured"}
	}

	ctx, span := tracer.Start(ctx, "AgentClient.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("transactions.count", len(transactions)))

	var out agentTextResponse
	err := c.post(ctx, "/v1/agent/query", queryRequest{
		Question:     question,
		Transactions: transactions,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *AgentClient) post(ctx context.Context, path string, payload, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}

			url := c.baseURL + path
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("agent API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "agent", Err: err}
	}
	return nil
}
