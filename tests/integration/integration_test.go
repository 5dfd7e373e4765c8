package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/handler"
	"github.com/financetrack/financetrack-go/internal/infra/cache"
	"github.com/financetrack/financetrack-go/internal/infra/client"
	"github.com/financetrack/financetrack-go/internal/infra/observability"
	"github.com/financetrack/financetrack-go/internal/infra/resilience"
	"github.com/financetrack/financetrack-go/internal/infra/supabase"
	"github.com/financetrack/financetrack-go/internal/ingest"
	"github.com/financetrack/financetrack-go/internal/rules"
	"github.com/financetrack/financetrack-go/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fakePostgREST is a minimal in-memory stand-in for Supabase's REST API:
// enough of the eq-filter dialect for the store layer to work end to end.
type fakePostgREST struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
}

func newFakePostgREST() *fakePostgREST {
	return &fakePostgREST{tables: map[string][]map[string]any{}}
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	q := r.URL.Query()

	switch r.Method {
	case http.MethodPost:
		var payload any
		json.NewDecoder(r.Body).Decode(&payload)
		var rows []map[string]any
		switch p := payload.(type) {
		case []any:
			for _, item := range p {
				rows = append(rows, item.(map[string]any))
			}
		case map[string]any:
			rows = append(rows, p)
		}
		for _, row := range rows {
			if _, ok := row["id"]; !ok {
				row["id"] = uuid.NewString()
			}
			f.tables[table] = append(f.tables[table], row)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rows)

	case http.MethodGet:
		out := f.filter(table, q)
		if sel := q.Get("select"); sel != "" && sel != "*" {
			fields := strings.Split(sel, ",")
			projected := make([]map[string]any, 0, len(out))
			for _, row := range out {
				p := map[string]any{}
				for _, field := range fields {
					p[field] = row[field]
				}
				projected = append(projected, p)
			}
			out = projected
		}
		if limitStr := q.Get("limit"); limitStr != "" {
			if n, err := strconv.Atoi(limitStr); err == nil && n < len(out) {
				out = out[:n]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)

	case http.MethodPatch:
		var fields map[string]any
		json.NewDecoder(r.Body).Decode(&fields)
		for _, row := range f.filter(table, q) {
			for k, v := range fields {
				row[k] = v
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		kept := make([]map[string]any, 0)
		matched := f.filter(table, q)
		for _, row := range f.tables[table] {
			isMatch := false
			for _, m := range matched {
				if fmt.Sprint(row["id"]) == fmt.Sprint(m["id"]) {
					isMatch = true
					break
				}
			}
			if !isMatch {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)
	}
}

// filter applies every eq. filter in the query; other operators and ordering
// are ignored, which is enough for these flows.
func (f *fakePostgREST) filter(table string, q map[string][]string) []map[string]any {
	var out []map[string]any
rows:
	for _, row := range f.tables[table] {
		for key, vals := range q {
			switch key {
			case "order", "limit", "offset", "select":
				continue
			}
			for _, val := range vals {
				if !strings.HasPrefix(val, "eq.") {
					continue
				}
				want := strings.TrimPrefix(val, "eq.")
				if !valueEqual(row[key], want) {
					continue rows
				}
			}
		}
		out = append(out, row)
	}
	return out
}

func valueEqual(got any, want string) bool {
	if fmt.Sprint(got) == want {
		return true
	}
	gf, gErr := strconv.ParseFloat(fmt.Sprint(got), 64)
	wf, wErr := strconv.ParseFloat(want, 64)
	return gErr == nil && wErr == nil && gf == wf
}

func buildRouter(t *testing.T, supabaseURL, agentURL string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("integration")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, supabaseURL, "anon", "service", cb, cfg, logger)
	agent := client.NewAgentClient(httpClient, agentURL, cb, cfg)

	categorizer := service.NewCategorizationService(
		rules.NewEngine(), store, store, store, agent,
		cache.New[[]domain.Rule](time.Minute), time.Second, metrics, logger,
	)
	return handler.NewRouter(handler.Services{
		Import:         service.NewImportService(ingest.NewImporter(logger), store, store, categorizer, metrics, logger),
		Transactions:   service.NewTransactionsService(store, store, logger),
		Categorization: categorizer,
		Rules:          service.NewRulesService(store, categorizer, logger),
		Insights:       service.NewInsightsService(store, store, store, agent, metrics, logger),
		Query:          service.NewQueryService(store, agent, logger),
		Auth:           service.NewAuthService(store, "integration-secret", 15*time.Minute, 24*time.Hour, logger),
	}, metrics, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestIntegration_ImportFlow covers register, login, account creation, CSV
// upload, re-upload reconciliation and rule-based categorization end to end
// against a fake PostgREST backend.
func TestIntegration_ImportFlow(t *testing.T) {
	backend := newFakePostgREST()
	supabaseServer := httptest.NewServer(backend)
	defer supabaseServer.Close()

	agentServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"category": "Food & Dining"})
	}))
	defer agentServer.Close()

	router := buildRouter(t, supabaseServer.URL, agentServer.URL)

	// --- Register + login ---
	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "sam@example.com", "password": "long-enough", "full_name": "Sam Doe",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "sam@example.com", "password": "long-enough",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var login domain.LoginResponse
	json.NewDecoder(rec.Body).Decode(&login)
	token := login.AccessToken

	// --- Create an account ---
	rec = doJSON(t, router, http.MethodPost, "/v1/accounts", token, map[string]string{
		"name": "Checking",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var account domain.Account
	json.NewDecoder(rec.Body).Decode(&account)

	// --- Seed a rule and a category ---
	backend.mu.Lock()
	backend.tables["categories"] = append(backend.tables["categories"], map[string]any{
		"id": "cat-food", "name": "Food & Dining",
	})
	backend.mu.Unlock()

	rec = doJSON(t, router, http.MethodPost, "/v1/rules", token, map[string]any{
		"pattern": "coffee", "pattern_type": "contains", "category_id": "cat-food", "priority": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// --- Upload a CSV ---
	csv := "Date,Description,Amount\n" +
		"2024-01-15,COFFEE SHOP,-4.50\n" +
		"2024-01-31,PAYCHECK,2500.00\n"

	upload := func() *domain.ImportResult {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("account_id", account.ID)
		mw.WriteField("use_ai", "false")
		fw, _ := mw.CreateFormFile("file", "statement.csv")
		fw.Write([]byte(csv))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("upload: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
		}
		var result domain.ImportResult
		json.NewDecoder(rec.Body).Decode(&result)
		return &result
	}

	first := upload()
	if first.Created != 2 || first.Updated != 0 {
		t.Fatalf("first upload: expected 2 created / 0 updated, got %d/%d", first.Created, first.Updated)
	}

	second := upload()
	if second.Created != 0 || second.Updated != 2 {
		t.Errorf("re-upload: expected 0 created / 2 updated, got %d/%d", second.Created, second.Updated)
	}

	// --- A structurally broken file is the caller's problem, not a 500 ---
	{
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("account_id", account.ID)
		fw, _ := mw.CreateFormFile("file", "broken.csv")
		fw.Write([]byte("Date,Description,Amount\n2024-01-15,\"UNCLOSED,-4.50\n"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("malformed upload: expected 400, got %d. Body: %s", rec.Code, rec.Body.String())
		}
	}

	// --- The rule categorized the coffee transaction on import ---
	rec = doJSON(t, router, http.MethodGet, "/v1/transactions?category_id=cat-food", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Transactions []domain.StoredTransaction `json:"transactions"`
		Count        int                        `json:"count"`
	}
	json.NewDecoder(rec.Body).Decode(&list)
	if list.Count != 1 {
		t.Fatalf("expected 1 categorized transaction, got %d", list.Count)
	}
	if list.Transactions[0].Description != "COFFEE SHOP" {
		t.Errorf("expected COFFEE SHOP categorized, got %q", list.Transactions[0].Description)
	}

	// --- Without a matching rule, the agent fills in the category by default ---
	{
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("account_id", account.ID)
		fw, _ := mw.CreateFormFile("file", "february.csv")
		fw.Write([]byte("Date,Description,Amount\n2024-02-01,MYSTERY VENDOR,-9.99\n"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("ai upload: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
		}

		rec = doJSON(t, router, http.MethodGet, "/v1/transactions?category_id=cat-food", token, nil)
		var after struct {
			Transactions []domain.StoredTransaction `json:"transactions"`
			Count        int                        `json:"count"`
		}
		json.NewDecoder(rec.Body).Decode(&after)
		if after.Count != 2 {
			t.Fatalf("expected the agent suggestion to categorize the new row, got %d categorized", after.Count)
		}
	}
}
