package policy

import "context"

// Engine evaluates web invocations against admission rules.
type Engine interface {
	// Evaluate evaluates an invocation against the loaded rules.
	// Returns a Decision with Allowed set and the matching rule named.
	// An empty rule set allows everything.
	Evaluate(ctx context.Context, evalCtx EvaluationContext) (Decision, error)
}
