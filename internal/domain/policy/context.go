package policy

import (
	"time"
)

// EvaluationContext contains all information needed to evaluate an
// admission rule against one web invocation.
type EvaluationContext struct {
	// Namespace is the action owner namespace.
	Namespace string
	// Package is the containing package name ("default" for none).
	Package string
	// Action is the action name.
	Action string
	// Method is the lowercased HTTP verb of the request.
	Method string
	// Extension is the media extension of the request, including the dot.
	Extension string
	// Authenticated reports whether the caller presented valid
	// credentials.
	Authenticated bool
	// Subject is the authenticated caller subject, or empty.
	Subject string
	// Query maps query parameter names to their first values.
	Query map[string]string
	// RequestTime is when the request was received.
	RequestTime time.Time
}

// QualifiedAction returns namespace/package/action for glob matching.
func (c EvaluationContext) QualifiedAction() string {
	return c.Namespace + "/" + c.Package + "/" + c.Action
}
