package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/infra/observability"
	"github.com/financetrack/financetrack-go/internal/port"
	"github.com/financetrack/financetrack-go/internal/rules"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var catTracer = otel.Tracer("service/categorization")

// CategorizationService assigns categories to transactions: deterministic
// user rules first, the external AI capability as fallback.
type CategorizationService struct {
	engine       *rules.Engine
	transactions port.TransactionStore
	ruleStore    port.RuleStore
	categories   port.CategoryStore
	suggester    port.CategorySuggester
	rulesCache   port.Cache[[]domain.Rule]
	aiTimeout    time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewCategorizationService creates a categorization service.
func NewCategorizationService(
	engine *rules.Engine,
	transactions port.TransactionStore,
	ruleStore port.RuleStore,
	categories port.CategoryStore,
	suggester port.CategorySuggester,
	rulesCache port.Cache[[]domain.Rule],
	aiTimeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CategorizationService {
	return &CategorizationService{
		engine:       engine,
		transactions: transactions,
		ruleStore:    ruleStore,
		categories:   categories,
		suggester:    suggester,
		rulesCache:   rulesCache,
		aiTimeout:    aiTimeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// CategorizeOne tries the rule engine, then (when useAI is set) the external
// suggester, and persists the first hit. Returns nil when no category was
// found; AI unavailability and timeouts are "no category", not errors.
func (s *CategorizationService) CategorizeOne(ctx context.Context, txn *domain.StoredTransaction, useAI bool) (*domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategorizationService.CategorizeOne")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txn.ID))

	userRules, err := s.activeRules(ctx, txn.UserID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	if categoryID, ok := s.engine.Match(txn.Description, userRules); ok {
		if err := s.transactions.SetCategory(ctx, txn.ID, categoryID); err != nil {
			return nil, fmt.Errorf("set category: %w", err)
		}
		s.metrics.IncrCategorization("rule")
		return s.categoryByID(ctx, categoryID)
	}

	if !useAI {
		s.metrics.IncrCategorization("none")
		return nil, nil
	}

	category := s.suggestWithAI(ctx, txn.Description)
	if category == nil {
		s.metrics.IncrCategorization("none")
		return nil, nil
	}
	if err := s.transactions.SetCategory(ctx, txn.ID, category.ID); err != nil {
		return nil, fmt.Errorf("set category: %w", err)
	}
	s.metrics.IncrCategorization("ai")
	return category, nil
}

// CategorizeBatch processes ids independently. Missing ids are skipped
// without touching any counter; a failing id is formatted into Errors and
// processing moves on. Work committed for earlier ids stays committed even
// when the caller's context is cancelled mid-batch.
func (s *CategorizationService) CategorizeBatch(ctx context.Context, userID string, ids []string, useAI bool) *domain.BatchResult {
	ctx, span := catTracer.Start(ctx, "CategorizationService.CategorizeBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(ids)))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("categorize_batch", time.Since(start))
	}()

	result := &domain.BatchResult{Errors: []string{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch aborted: %v", err))
			break
		}

		txn, err := s.transactions.GetTransaction(ctx, userID, id)
		if err != nil {
			var notFound *domain.ErrNotFound
			if errors.As(err, &notFound) {
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %s: %v", id, err))
			continue
		}
		if txn == nil {
			continue
		}

		category, err := s.CategorizeOne(ctx, txn, useAI)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %s: %v", id, err))
			continue
		}
		if category != nil {
			result.Categorized++
		} else {
			result.Uncategorized++
		}
	}

	s.logger.Info("batch categorization finished",
		zap.String("user_id", userID),
		zap.Int("requested", len(ids)),
		zap.Int("categorized", result.Categorized),
		zap.Int("uncategorized", result.Uncategorized),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

// ListCategories returns the process-wide category set.
func (s *CategorizationService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategorizationService.ListCategories")
	defer span.End()

	return s.categories.ListCategories(ctx)
}

// CategorizeAllUncategorized runs a batch over every uncategorized
// transaction the user owns.
func (s *CategorizationService) CategorizeAllUncategorized(ctx context.Context, userID string, useAI bool) (*domain.BatchResult, error) {
	ids, err := s.transactions.ListUncategorizedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list uncategorized: %w", err)
	}
	return s.CategorizeBatch(ctx, userID, ids, useAI), nil
}

// suggestWithAI asks the external capability under a bounded deadline. Every
// failure mode — unconfigured backend, timeout, transport error, a name that
// maps to no category — collapses to nil so one slow backend cannot block a
// batch.
func (s *CategorizationService) suggestWithAI(ctx context.Context, description string) *domain.Category {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil || len(categories) == 0 {
		if err != nil {
			s.logger.Warn("ai categorization: listing categories failed", zap.Error(err))
		}
		return nil
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	name, err := s.suggester.SuggestCategory(aiCtx, description, names)
	if err != nil {
		var unavailable *domain.ErrCategorizationUnavailable
		switch {
		case errors.As(err, &unavailable):
			s.logger.Debug("ai categorization unavailable")
		case errors.Is(err, context.DeadlineExceeded):
			s.logger.Warn("ai categorization timed out",
				zap.Duration("timeout", s.aiTimeout),
			)
			s.metrics.IncrExternalError("ai_suggester")
		default:
			s.logger.Warn("ai categorization failed", zap.Error(err))
			s.metrics.IncrExternalError("ai_suggester")
		}
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	// Map the free-text answer to a known category, case-insensitive and
	// partial: "food" resolves to "Food & Dining".
	category, err := s.categories.FindCategoryByName(ctx, name)
	if err != nil {
		s.logger.Warn("ai categorization: category lookup failed",
			zap.String("suggested", name),
			zap.Error(err),
		)
		return nil
	}
	return category
}

// activeRules loads the user's active rules through the TTL cache. The store
// returns them ordered by priority desc, creation order breaking ties.
func (s *CategorizationService) activeRules(ctx context.Context, userID string) ([]domain.Rule, error) {
	cacheKey := "rules:" + userID
	if cached, hit := s.rulesCache.Get(cacheKey); hit {
		s.metrics.IncrCacheHit("rules")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("rules")

	userRules, err := s.ruleStore.FindRulesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.rulesCache.Set(cacheKey, userRules)
	return userRules, nil
}

// InvalidateRules drops the cached rule set after a rule mutation.
func (s *CategorizationService) InvalidateRules(userID string) {
	s.rulesCache.Delete("rules:" + userID)
}

func (s *CategorizationService) categoryByID(ctx context.Context, id string) (*domain.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], nil
		}
	}
	// The rule points at a category that no longer exists; the assignment
	// already happened, so report it as categorized with a bare id.
	return &domain.Category{ID: id}, nil
}
