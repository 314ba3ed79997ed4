// Package service contains application services.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/cel-go/cel"

	celeval "github.com/actiongate/actiongate/internal/adapter/outbound/cel"
	"github.com/actiongate/actiongate/internal/domain/policy"
)

// CompiledRule represents a pre-compiled admission rule ready for evaluation.
type CompiledRule struct {
	ID          string
	Name        string
	Priority    int
	ActionMatch string      // Glob pattern for qualified action matching
	Program     cel.Program // Pre-compiled CEL program, nil when the rule has no condition
	Effect      policy.Effect
}

// RuleIndex provides O(1) lookup for exact action matches.
type RuleIndex struct {
	Exact    map[string][]CompiledRule // qualified name -> rules for exact match
	Wildcard []CompiledRule            // "*" or glob patterns, evaluated in priority order
}

// CompiledRulesSnapshot is the immutable snapshot stored in atomic.Value.
type CompiledRulesSnapshot struct {
	Rules []CompiledRule
	Index *RuleIndex
}

// lruEntry is a doubly-linked list node for the LRU cache.
type lruEntry struct {
	key      uint64
	decision policy.Decision
	prev     *lruEntry
	next     *lruEntry
}

// ResultCache provides bounded LRU caching for CEL evaluation results.
// Thread-safe with Mutex (both Get and Put mutate LRU order).
type ResultCache struct {
	mu      sync.Mutex
	entries map[uint64]*lruEntry
	head    *lruEntry // most recently used
	tail    *lruEntry // least recently used
	maxSize int
}

// NewResultCache creates a new LRU cache with the given max size.
func NewResultCache(maxSize int) *ResultCache {
	return &ResultCache{
		entries: make(map[uint64]*lruEntry, maxSize),
		maxSize: maxSize,
	}
}

// Get retrieves a cached decision. Returns (decision, true) on hit.
// On hit, the entry is promoted to the head (most recently used).
func (c *ResultCache) Get(key uint64) (policy.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.moveToHeadLocked(e)
		return e.decision, true
	}
	return policy.Decision{}, false
}

// Put stores a decision. At capacity, the least recently used entry is
// evicted.
func (c *ResultCache) Put(key uint64, decision policy.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.decision = decision
		c.moveToHeadLocked(e)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictTailLocked()
	}

	e := &lruEntry{key: key, decision: decision}
	c.entries[key] = e
	c.pushHeadLocked(e)
}

// Clear empties the cache. Called on rule reload.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*lruEntry, c.maxSize)
	c.head = nil
	c.tail = nil
}

// Size returns current cache size.
func (c *ResultCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResultCache) moveToHeadLocked(e *lruEntry) {
	if c.head == e {
		return
	}
	c.unlinkLocked(e)
	c.pushHeadLocked(e)
}

func (c *ResultCache) pushHeadLocked(e *lruEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *ResultCache) unlinkLocked(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *ResultCache) evictTailLocked() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlinkLocked(c.tail)
}

// computeCacheKey generates a hash of the evaluation context fields that
// admission rules can condition on. Query parameters are excluded: rules
// over query values are rare and caching them would blow up the key space.
func computeCacheKey(evalCtx policy.EvaluationContext) uint64 {
	h := xxhash.New()
	for _, s := range []string{
		evalCtx.QualifiedAction(),
		evalCtx.Method,
		evalCtx.Extension,
		evalCtx.Subject,
	} {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	if evalCtx.Authenticated {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// usesQuery reports whether a CEL condition references the query variable,
// making its decision uncacheable.
func usesQuery(condition string) bool {
	return strings.Contains(condition, "query")
}

// PolicyService implements policy.Engine with CEL-based rule evaluation.
// Rules are compiled at load time and evaluated in priority order (highest
// first). Supports hot-reload via Reload() for runtime rule updates.
// Uses atomic.Value for lock-free reads on the hot path.
type PolicyService struct {
	evaluator *celeval.Evaluator
	snapshot  atomic.Value // stores *CompiledRulesSnapshot
	mu        sync.Mutex   // Only for Reload() writes
	cache     *ResultCache
	hasQuery  atomic.Bool // any loaded rule conditions on query
	logger    *slog.Logger
}

// PolicyServiceOption configures PolicyService.
type PolicyServiceOption func(*PolicyService)

// WithCacheSize sets the maximum number of cached decisions.
func WithCacheSize(size int) PolicyServiceOption {
	return func(s *PolicyService) {
		s.cache = NewResultCache(size)
	}
}

// NewPolicyService creates a PolicyService and compiles the given rules.
func NewPolicyService(rules []policy.Rule, logger *slog.Logger, opts ...PolicyServiceOption) (*PolicyService, error) {
	evaluator, err := celeval.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	s := &PolicyService{
		evaluator: evaluator,
		cache:     NewResultCache(1000),
		logger:    logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(rules); err != nil {
		return nil, err
	}

	snapshot := s.loadSnapshot()
	logger.Info("policy service initialized",
		"rules_compiled", len(snapshot.Rules),
		"exact_patterns", len(snapshot.Index.Exact),
		"wildcard_patterns", len(snapshot.Index.Wildcard),
		"cache_max_size", s.cache.maxSize,
	)

	return s, nil
}

// ValidateRules checks that all CEL conditions in the given rules are
// valid. Returns an error describing the first invalid rule.
func (s *PolicyService) ValidateRules(rules []policy.Rule) error {
	for _, rule := range rules {
		if rule.Condition == "" {
			continue
		}
		if err := s.evaluator.ValidateExpression(rule.Condition); err != nil {
			return fmt.Errorf("rule %q: %w", rule.Name, err)
		}
	}
	return nil
}

// compileRules compiles CEL conditions and sorts rules by priority.
func (s *PolicyService) compileRules(rules []policy.Rule) ([]CompiledRule, bool, error) {
	compiled := make([]CompiledRule, 0, len(rules))
	anyQuery := false

	for _, rule := range rules {
		var prg cel.Program
		if rule.Condition != "" {
			var err error
			prg, err = s.evaluator.Compile(rule.Condition)
			if err != nil {
				return nil, false, fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
			}
			if usesQuery(rule.Condition) {
				anyQuery = true
			}
		}

		ruleID := rule.ID
		if ruleID == "" {
			ruleID = rule.Name
		}

		compiled = append(compiled, CompiledRule{
			ID:          ruleID,
			Name:        rule.Name,
			Priority:    rule.Priority,
			ActionMatch: rule.ActionMatch,
			Program:     prg,
			Effect:      rule.Effect,
		})
	}

	// Sort by priority descending (highest first)
	sort.Slice(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return compiled, anyQuery, nil
}

// buildIndex creates a RuleIndex for O(1) exact match lookup.
func (s *PolicyService) buildIndex(rules []CompiledRule) *RuleIndex {
	idx := &RuleIndex{
		Exact: make(map[string][]CompiledRule),
	}
	for _, rule := range rules {
		if strings.ContainsAny(rule.ActionMatch, "*?[") {
			idx.Wildcard = append(idx.Wildcard, rule)
		} else {
			idx.Exact[rule.ActionMatch] = append(idx.Exact[rule.ActionMatch], rule)
		}
	}
	sort.Slice(idx.Wildcard, func(i, j int) bool {
		return idx.Wildcard[i].Priority > idx.Wildcard[j].Priority
	})
	for k := range idx.Exact {
		sort.Slice(idx.Exact[k], func(i, j int) bool {
			return idx.Exact[k][i].Priority > idx.Exact[k][j].Priority
		})
	}
	return idx
}

// loadSnapshot returns the current rules snapshot atomically (lock-free).
func (s *PolicyService) loadSnapshot() *CompiledRulesSnapshot {
	return s.snapshot.Load().(*CompiledRulesSnapshot)
}

// getCandidateRules returns rules that might match the qualified action,
// merging exact matches with wildcards in priority order.
func (s *PolicyService) getCandidateRules(idx *RuleIndex, qualified string) []CompiledRule {
	exact := idx.Exact[qualified]

	if len(exact) == 0 {
		return idx.Wildcard
	}
	if len(idx.Wildcard) == 0 {
		return exact
	}

	merged := make([]CompiledRule, 0, len(exact)+len(idx.Wildcard))
	i, j := 0, 0
	for i < len(exact) && j < len(idx.Wildcard) {
		if exact[i].Priority >= idx.Wildcard[j].Priority {
			merged = append(merged, exact[i])
			i++
		} else {
			merged = append(merged, idx.Wildcard[j])
			j++
		}
	}
	merged = append(merged, exact[i:]...)
	merged = append(merged, idx.Wildcard[j:]...)
	return merged
}

// Evaluate evaluates an invocation against the loaded rules.
// Rules run in priority order; the first matching rule wins. With no
// matching rule the invocation is allowed.
// Uses a lock-free atomic.Value read and an LRU decision cache on the hot
// path; the cache is bypassed when any rule conditions on query values.
func (s *PolicyService) Evaluate(ctx context.Context, evalCtx policy.EvaluationContext) (policy.Decision, error) {
	cacheable := !s.hasQuery.Load()
	var cacheKey uint64
	if cacheable {
		cacheKey = computeCacheKey(evalCtx)
		if decision, ok := s.cache.Get(cacheKey); ok {
			return decision, nil
		}
	}

	snapshot := s.loadSnapshot()
	qualified := evalCtx.QualifiedAction()
	candidates := s.getCandidateRules(snapshot.Index, qualified)

	for _, rule := range candidates {
		if strings.ContainsAny(rule.ActionMatch, "*?[") {
			// A lone "*" matches everything including "/" separators,
			// which filepath.Match would treat as boundaries.
			if rule.ActionMatch != "*" {
				matched, err := filepath.Match(rule.ActionMatch, qualified)
				if err != nil {
					s.logger.Warn("invalid glob pattern", "rule", rule.ID, "pattern", rule.ActionMatch, "error", err)
					continue
				}
				if !matched {
					continue
				}
			}
		}

		if rule.Program != nil {
			result, err := s.evaluator.Evaluate(rule.Program, evalCtx)
			if err != nil {
				return policy.Decision{}, fmt.Errorf("rule %s evaluation failed: %w", rule.ID, err)
			}
			if !result {
				continue
			}
		}

		decision := policy.Decision{
			Allowed:  rule.Effect == policy.EffectAllow,
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Reason:   fmt.Sprintf("matched rule %s", rule.Name),
		}
		if cacheable {
			s.cache.Put(cacheKey, decision)
		}
		return decision, nil
	}

	decision := policy.Decision{
		Allowed: true,
		Reason:  "no matching rule (default allow)",
	}
	if cacheable {
		s.cache.Put(cacheKey, decision)
	}
	return decision, nil
}

// Reload recompiles the rule set and publishes it atomically. Thread-safe
// and callable concurrently with Evaluate.
func (s *PolicyService) Reload(rules []policy.Rule) error {
	compiled, anyQuery, err := s.compileRules(rules)
	if err != nil {
		return fmt.Errorf("failed to compile rules: %w", err)
	}

	idx := s.buildIndex(compiled)

	s.mu.Lock()
	s.snapshot.Store(&CompiledRulesSnapshot{
		Rules: compiled,
		Index: idx,
	})
	s.hasQuery.Store(anyQuery)
	s.mu.Unlock()

	// Cached decisions may be stale after a rule change.
	s.cache.Clear()

	return nil
}

// Compile-time interface verification.
var _ policy.Engine = (*PolicyService)(nil)
