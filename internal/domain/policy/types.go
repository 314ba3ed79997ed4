// Package policy contains domain types for admission policy evaluation.
package policy

import "time"

// Effect represents the result of a policy rule evaluation.
type Effect string

const (
	// EffectAllow permits the invocation to proceed.
	EffectAllow Effect = "allow"
	// EffectDeny blocks the invocation.
	EffectDeny Effect = "deny"
)

// Rule defines a single admission rule for web invocations.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string
	// Name is a human-readable name for this rule.
	Name string
	// Priority determines rule evaluation order (lower = higher priority).
	Priority int
	// ActionMatch is a glob pattern matched against the fully-qualified
	// action name namespace/package/action (e.g., "guest/*/*").
	ActionMatch string
	// Condition is a CEL expression that must evaluate to true for the
	// rule to apply. Empty means the rule always applies when the glob
	// matches.
	Condition string
	// Effect is the result when this rule matches.
	Effect Effect
	// CreatedAt is when the rule was created (UTC).
	CreatedAt time.Time
}

// Decision represents the outcome of admission evaluation for an
// invocation.
type Decision struct {
	// Allowed is true if the invocation is permitted.
	Allowed bool
	// RuleID is the ID of the rule that produced this decision.
	RuleID string
	// RuleName is the human-readable name of that rule.
	RuleName string
	// Reason explains why the decision was made.
	Reason string
}
