package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var rulesTracer = otel.Tracer("service/rules")

// RulesService manages user categorization rules.
type RulesService struct {
	store       port.RuleStore
	categorizer *CategorizationService
	logger      *zap.Logger
}

// NewRulesService creates a rules service.
func NewRulesService(store port.RuleStore, categorizer *CategorizationService, logger *zap.Logger) *RulesService {
	return &RulesService{store: store, categorizer: categorizer, logger: logger}
}

// ListRules returns all of the user's rules, active or not.
func (s *RulesService) ListRules(ctx context.Context, userID string) ([]domain.Rule, error) {
	ctx, span := rulesTracer.Start(ctx, "RulesService.ListRules")
	defer span.End()

	return s.store.ListRules(ctx, userID)
}

// CreateRule validates and persists a rule, then invalidates the user's
// cached rule set so the next categorization sees it.
func (s *RulesService) CreateRule(ctx context.Context, rule *domain.Rule) (*domain.Rule, error) {
	ctx, span := rulesTracer.Start(ctx, "RulesService.CreateRule")
	defer span.End()

	if strings.TrimSpace(rule.Pattern) == "" {
		return nil, &domain.ErrValidation{Field: "pattern", Message: "pattern is required"}
	}
	if rule.CategoryID == "" {
		return nil, &domain.ErrValidation{Field: "category_id", Message: "category_id is required"}
	}
	if rule.PatternType == "" {
		rule.PatternType = domain.PatternContains
	}
	if !domain.ValidPatternType(string(rule.PatternType)) {
		return nil, &domain.ErrValidation{Field: "pattern_type", Message: "must be contains, starts_with, exact or regex"}
	}
	// A regex rule that never compiles would silently never match; reject it
	// at creation time instead.
	if rule.PatternType == domain.PatternRegex {
		if _, err := regexp.Compile("(?i)" + rule.Pattern); err != nil {
			return nil, &domain.ErrValidation{Field: "pattern", Message: "invalid regular expression: " + err.Error()}
		}
	}

	rule.ID = uuid.NewString()
	rule.CreatedAt = time.Now().UTC()

	created, err := s.store.CreateRule(ctx, rule)
	if err != nil {
		return nil, err
	}
	s.categorizer.InvalidateRules(rule.UserID)

	s.logger.Info("rule created",
		zap.String("user_id", rule.UserID),
		zap.String("rule_id", created.ID),
		zap.String("pattern_type", string(created.PatternType)),
		zap.Int("priority", created.Priority),
	)
	return created, nil
}

// DeleteRule removes a rule owned by the user.
func (s *RulesService) DeleteRule(ctx context.Context, userID, ruleID string) error {
	ctx, span := rulesTracer.Start(ctx, "RulesService.DeleteRule")
	defer span.End()

	if err := s.store.DeleteRule(ctx, userID, ruleID); err != nil {
		return err
	}
	s.categorizer.InvalidateRules(userID)
	return nil
}
