// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"sync"

	"github.com/actiongate/actiongate/internal/domain/identity"
)

// AuthStore implements identity.AuthStore with in-memory maps.
// Thread-safe for concurrent access. For development/testing only.
type AuthStore struct {
	byNamespace map[string]*identity.Identity
	byUUID      map[string]*identity.Identity
	mu          sync.RWMutex
}

// NewAuthStore creates a new in-memory auth store.
func NewAuthStore() *AuthStore {
	return &AuthStore{
		byNamespace: make(map[string]*identity.Identity),
		byUUID:      make(map[string]*identity.Identity),
	}
}

// GetIdentityByNamespace retrieves the identity owning a namespace.
// Returns identity.ErrIdentityNotFound if the namespace has no owner.
func (s *AuthStore) GetIdentityByNamespace(ctx context.Context, namespace string) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNamespace[namespace]
	if !ok {
		return nil, identity.ErrIdentityNotFound
	}

	// Return a copy to prevent mutation
	idCopy := *id
	return &idCopy, nil
}

// GetIdentityByUUID retrieves an identity by its key UUID.
// Returns identity.ErrIdentityNotFound if no key matches.
func (s *AuthStore) GetIdentityByUUID(ctx context.Context, uuid string) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUUID[uuid]
	if !ok {
		return nil, identity.ErrIdentityNotFound
	}

	idCopy := *id
	return &idCopy, nil
}

// PutIdentity creates or replaces an identity.
func (s *AuthStore) PutIdentity(ctx context.Context, id *identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	idCopy := *id
	s.byNamespace[id.Namespace] = &idCopy
	if id.Key.UUID != "" {
		s.byUUID[id.Key.UUID] = &idCopy
	}
	return nil
}

// Compile-time interface verification.
var (
	_ identity.AuthStore  = (*AuthStore)(nil)
	_ identity.AuthWriter = (*AuthStore)(nil)
)
