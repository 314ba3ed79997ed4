package entity

import (
	"context"
	"errors"
)

// Sentinel errors for entity store operations.
var (
	// ErrNotFound is returned when a package or action does not exist.
	ErrNotFound = errors.New("entity not found")
)

// EntityStore provides read access to packages and actions.
// This interface is defined in the domain to avoid circular imports.
// Implementations: in-memory (dev), SQLite (durable).
type EntityStore interface {
	// GetPackage retrieves a package by namespace and name.
	// Returns ErrNotFound if the package does not exist.
	GetPackage(ctx context.Context, namespace, name string) (*Package, error)

	// GetAction retrieves an action. pkg is empty for the default package.
	// Returns ErrNotFound if the action does not exist.
	GetAction(ctx context.Context, namespace, pkg, name string) (*Action, error)
}

// EntityWriter provides the write operations used by seeding and tests.
type EntityWriter interface {
	// PutPackage creates or replaces a package.
	PutPackage(ctx context.Context, p *Package) error

	// PutAction creates or replaces an action.
	PutAction(ctx context.Context, a *Action) error
}
