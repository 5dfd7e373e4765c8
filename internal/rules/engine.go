// Package rules implements deterministic, priority-ordered rule matching
// for transaction descriptions.
package rules

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/financetrack/financetrack-go/internal/domain"
)

// Engine evaluates categorization rules against descriptions. It keeps a
// cache of compiled regex patterns; Go's RE2 engine guarantees linear-time
// matching, so a hostile pattern cannot stall an evaluation.
// Safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	regexCache map[string]*regexp.Regexp
}

// NewEngine creates a rule engine.
func NewEngine() *Engine {
	return &Engine{regexCache: make(map[string]*regexp.Regexp)}
}

// Match evaluates the given rules against a description and returns the
// category id of the first matching rule. Rules are evaluated in descending
// priority; the incoming slice order (creation order) breaks ties, so the
// outcome is deterministic for any permutation of distinct priorities.
//
// Inactive rules are skipped. A malformed regex is a non-match, never an
// error: categorization must not abort because one user rule is broken.
func (e *Engine) Match(description string, ruleSet []domain.Rule) (categoryID string, ok bool) {
	ordered := make([]domain.Rule, len(ruleSet))
	copy(ordered, ruleSet)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, rule := range ordered {
		if !rule.IsActive {
			continue
		}
		if e.matches(description, rule.Pattern, rule.PatternType) {
			return rule.CategoryID, true
		}
	}
	return "", false
}

// matches applies one pattern. All strategies are case-insensitive.
func (e *Engine) matches(text, pattern string, pt domain.PatternType) bool {
	textLower := strings.ToLower(text)
	patternLower := strings.ToLower(pattern)

	switch pt {
	case domain.PatternContains:
		return strings.Contains(textLower, patternLower)
	case domain.PatternStartsWith:
		return strings.HasPrefix(textLower, patternLower)
	case domain.PatternExact:
		return textLower == patternLower
	case domain.PatternRegex:
		re, err := e.compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

// compile returns a cached case-insensitive, unanchored regex.
func (e *Engine) compile(pattern string) (*regexp.Regexp, error) {
	e.mu.RLock()
	re, hit := e.regexCache[pattern]
	e.mu.RUnlock()
	if hit {
		return re, nil
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.regexCache[pattern] = re
	e.mu.Unlock()
	return re, nil
}
