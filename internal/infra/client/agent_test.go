package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/infra/client"
	"github.com/financetrack/financetrack-go/internal/infra/resilience"
)

var testCfg = resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}

func TestAgentClient_Unconfigured(t *testing.T) {
	c := client.NewAgentClient(http.DefaultClient, "", resilience.NewCircuitBreaker("test"), testCfg)

	if c.Configured() {
		t.Error("empty base URL should report unconfigured")
	}

	_, err := c.SuggestCategory(context.Background(), "COFFEE SHOP", []string{"Food & Dining"})
	var unavailable *domain.ErrCategorizationUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrCategorizationUnavailable, got %v", err)
	}
}

func TestAgentClient_SuggestCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/agent/categorize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"category": "Food & Dining"})
	}))
	defer srv.Close()

	c := client.NewAgentClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("test"), testCfg)

	name, err := c.SuggestCategory(context.Background(), "COFFEE SHOP", []string{"Food & Dining"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if name != "Food & Dining" {
		t.Errorf("expected 'Food & Dining', got %q", name)
	}
}

func TestAgentClient_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := client.NewAgentClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("test"), testCfg)

	_, err := c.SuggestCategory(context.Background(), "COFFEE SHOP", nil)
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestAgentClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Question == "" {
			t.Error("question not forwarded")
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "You spent $42 on coffee."})
	}))
	defer srv.Close()

	c := client.NewAgentClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("test"), testCfg)

	answer, err := c.Query(context.Background(), "How much did I spend on coffee?", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if answer != "You spent $42 on coffee." {
		t.Errorf("unexpected answer %q", answer)
	}
}
