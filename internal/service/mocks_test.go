package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
)

// --- Mocks ---

// memTransactionStore is an in-memory port.TransactionStore.
type memTransactionStore struct {
	mu      sync.Mutex
	txns    map[string]*domain.StoredTransaction
	updates int

	insertErr error
	getErr    error
}

func newMemTransactionStore() *memTransactionStore {
	return &memTransactionStore{txns: make(map[string]*domain.StoredTransaction)}
}

func (m *memTransactionStore) FindByDedupKey(_ context.Context, key domain.DedupKey) (*domain.StoredTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.AccountID == key.AccountID &&
			t.Date.Equal(key.Date) &&
			t.Amount.StringFixed(2) == key.Amount &&
			t.Description == key.Description {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTransactionStore) Insert(_ context.Context, txn *domain.StoredTransaction) (*domain.StoredTransaction, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *txn
	m.txns[txn.ID] = &cp
	return txn, nil
}

func (m *memTransactionStore) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if t, ok := m.txns[id]; ok {
		if d, ok := fields["description"].(string); ok {
			t.Description = d
		}
	}
	return nil
}

func (m *memTransactionStore) SetCategory(_ context.Context, transactionID, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.txns[transactionID]; ok {
		t.CategoryID = categoryID
		t.IsCategorized = true
	}
	return nil
}

func (m *memTransactionStore) GetTransaction(_ context.Context, userID, id string) (*domain.StoredTransaction, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memTransactionStore) ListTransactions(_ context.Context, userID string, _ domain.TransactionFilter) ([]domain.StoredTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StoredTransaction
	for _, t := range m.txns {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTransactionStore) ListUncategorizedIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, t := range m.txns {
		if t.UserID == userID && !t.IsCategorized {
			out = append(out, t.ID)
		}
	}
	return out, nil
}

func (m *memTransactionStore) ListByMonth(_ context.Context, userID string, month, year int) ([]domain.StoredTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StoredTransaction
	for _, t := range m.txns {
		if t.UserID == userID && int(t.Date.Month()) == month && t.Date.Year() == year {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTransactionStore) DeleteTransaction(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.txns, id)
	return nil
}

func (m *memTransactionStore) add(t domain.StoredTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := t
	m.txns[t.ID] = &cp
}

// mockAccountStore serves a fixed set of accounts.
type mockAccountStore struct {
	accounts map[string]*domain.Account
}

func (m *mockAccountStore) GetAccount(_ context.Context, userID, accountID string) (*domain.Account, error) {
	a, ok := m.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	return a, nil
}

func (m *mockAccountStore) ListAccounts(_ context.Context, userID string) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAccountStore) CreateAccount(_ context.Context, account *domain.Account) (*domain.Account, error) {
	m.accounts[account.ID] = account
	return account, nil
}

// mockRuleStore serves a fixed rule set.
type mockRuleStore struct {
	rules []domain.Rule
	err   error
}

func (m *mockRuleStore) FindRulesByUser(_ context.Context, _ string) ([]domain.Rule, error) {
	return m.rules, m.err
}

func (m *mockRuleStore) ListRules(_ context.Context, _ string) ([]domain.Rule, error) {
	return m.rules, m.err
}

func (m *mockRuleStore) CreateRule(_ context.Context, rule *domain.Rule) (*domain.Rule, error) {
	m.rules = append(m.rules, *rule)
	return rule, nil
}

func (m *mockRuleStore) DeleteRule(_ context.Context, _, _ string) error {
	return nil
}

// mockCategoryStore serves a fixed category set.
type mockCategoryStore struct {
	categories []domain.Category
}

func (m *mockCategoryStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	return m.categories, nil
}

func (m *mockCategoryStore) FindCategoryByName(_ context.Context, pattern string) (*domain.Category, error) {
	p := strings.ToLower(pattern)
	for i := range m.categories {
		if strings.Contains(strings.ToLower(m.categories[i].Name), p) {
			return &m.categories[i], nil
		}
	}
	return nil, nil
}

func (m *mockCategoryStore) SeedCategories(_ context.Context, _ []domain.Category) error {
	return nil
}

// mockBudgetStore serves a fixed budget set.
type mockBudgetStore struct {
	budgets []domain.Budget
}

func (m *mockBudgetStore) ListBudgets(_ context.Context, _ string, _, _ int) ([]domain.Budget, error) {
	return m.budgets, nil
}

// mockSuggester returns a canned AI suggestion.
type mockSuggester struct {
	name  string
	err   error
	delay time.Duration
	calls int
}

func (m *mockSuggester) SuggestCategory(ctx context.Context, _ string, _ []string) (string, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.name, m.err
}

// mockAgent returns canned narrative responses.
type mockAgent struct {
	summary string
	answer  string
	err     error
}

func (m *mockAgent) MonthlySummary(_ context.Context, _ string) (string, error) {
	return m.summary, m.err
}

func (m *mockAgent) Query(_ context.Context, _ string, _ []domain.StoredTransaction) (string, error) {
	return m.answer, m.err
}
