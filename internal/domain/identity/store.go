package identity

import (
	"context"
	"errors"
)

// Sentinel errors for auth store operations.
var (
	// ErrIdentityNotFound is returned when no identity matches the lookup.
	ErrIdentityNotFound = errors.New("identity not found")
)

// AuthStore provides identity lookup for request handling.
// This interface is defined in the domain to avoid circular imports.
// Implementations: in-memory (dev), SQLite (durable).
type AuthStore interface {
	// GetIdentityByNamespace retrieves the identity owning a namespace.
	// Returns ErrIdentityNotFound if the namespace has no owner.
	GetIdentityByNamespace(ctx context.Context, namespace string) (*Identity, error)

	// GetIdentityByUUID retrieves an identity by its key UUID.
	// Returns ErrIdentityNotFound if no key matches.
	GetIdentityByUUID(ctx context.Context, uuid string) (*Identity, error)
}

// AuthWriter provides the write operations used by seeding and tests.
type AuthWriter interface {
	// PutIdentity creates or replaces an identity.
	PutIdentity(ctx context.Context, id *Identity) error
}
