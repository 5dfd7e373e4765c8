package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/service"

	"go.uber.org/zap"
)

func newRulesFixture(ruleStore *mockRuleStore) *service.RulesService {
	categorizer := newCategorizationFixture(newMemTransactionStore(), ruleStore, &mockSuggester{}, time.Second)
	return service.NewRulesService(ruleStore, categorizer, zap.NewNop())
}

func TestCreateRule_Defaults(t *testing.T) {
	store := &mockRuleStore{}
	svc := newRulesFixture(store)

	rule, err := svc.CreateRule(context.Background(), &domain.Rule{
		UserID:     testUser,
		Pattern:    "coffee",
		CategoryID: "cat-food",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rule.PatternType != domain.PatternContains {
		t.Errorf("pattern_type should default to contains, got %s", rule.PatternType)
	}
	if len(store.rules) != 1 {
		t.Errorf("expected 1 stored rule, got %d", len(store.rules))
	}
}

func TestCreateRule_AssignsIdentity(t *testing.T) {
	store := &mockRuleStore{}
	svc := newRulesFixture(store)

	rule, err := svc.CreateRule(context.Background(), &domain.Rule{
		UserID:     testUser,
		Pattern:    "coffee",
		CategoryID: "cat-food",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rule.ID == "" {
		t.Error("created rule should have an id")
	}
	if rule.CreatedAt.IsZero() {
		t.Error("created rule should have a creation time")
	}
	if store.rules[0].ID != rule.ID {
		t.Errorf("stored rule id %q does not match returned id %q", store.rules[0].ID, rule.ID)
	}
}

func TestCreateRule_Validation(t *testing.T) {
	svc := newRulesFixture(&mockRuleStore{})

	cases := []domain.Rule{
		{UserID: testUser, Pattern: "", CategoryID: "cat-food"},
		{UserID: testUser, Pattern: "coffee", CategoryID: ""},
		{UserID: testUser, Pattern: "coffee", CategoryID: "cat-food", PatternType: "fuzzy"},
		{UserID: testUser, Pattern: "([broken", CategoryID: "cat-food", PatternType: domain.PatternRegex},
	}
	for _, rule := range cases {
		_, err := svc.CreateRule(context.Background(), &rule)
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("rule %+v: expected ErrValidation, got %v", rule, err)
		}
	}
}

func TestCreateRule_ValidRegexAccepted(t *testing.T) {
	svc := newRulesFixture(&mockRuleStore{})

	_, err := svc.CreateRule(context.Background(), &domain.Rule{
		UserID:      testUser,
		Pattern:     `netflix|spotify`,
		CategoryID:  "cat-streaming",
		PatternType: domain.PatternRegex,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
