// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// LoggerKey is the context key type for the enriched logger.
// Used by HTTP middleware to store and retrieve the logger with the
// transaction_id field attached.
type LoggerKey struct{}

// TransactionIDKey is the context key type for the per-request transaction id.
type TransactionIDKey struct{}
