package memory

import (
	"context"
	"sync"

	"github.com/actiongate/actiongate/internal/domain/entity"
)

// EntityStore implements entity.EntityStore with in-memory maps.
// Thread-safe for concurrent access. For development/testing only.
type EntityStore struct {
	packages map[string]*entity.Package
	actions  map[string]*entity.Action
	mu       sync.RWMutex
}

// NewEntityStore creates a new in-memory entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		packages: make(map[string]*entity.Package),
		actions:  make(map[string]*entity.Action),
	}
}

func packageKey(namespace, name string) string {
	return namespace + "/" + name
}

func actionKey(namespace, pkg, name string) string {
	return namespace + "/" + pkg + "/" + name
}

// GetPackage retrieves a package by namespace and name.
// Returns entity.ErrNotFound if the package does not exist.
func (s *EntityStore) GetPackage(ctx context.Context, namespace, name string) (*entity.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.packages[packageKey(namespace, name)]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return copyPackage(p), nil
}

// GetAction retrieves an action. pkg is empty for the default package.
// Returns entity.ErrNotFound if the action does not exist.
func (s *EntityStore) GetAction(ctx context.Context, namespace, pkg, name string) (*entity.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.actions[actionKey(namespace, pkg, name)]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return copyAction(a), nil
}

// PutPackage creates or replaces a package.
func (s *EntityStore) PutPackage(ctx context.Context, p *entity.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.packages[packageKey(p.Namespace, p.Name)] = copyPackage(p)
	return nil
}

// PutAction creates or replaces an action.
func (s *EntityStore) PutAction(ctx context.Context, a *entity.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions[actionKey(a.Namespace, a.Package, a.Name)] = copyAction(a)
	return nil
}

// copyPackage makes a shallow copy with fresh top-level maps. Parameter
// values are shared; callers treat them as read-only.
func copyPackage(p *entity.Package) *entity.Package {
	cp := *p
	cp.Parameters = copyMap(p.Parameters)
	cp.Annotations = copyMap(p.Annotations)
	return &cp
}

func copyAction(a *entity.Action) *entity.Action {
	cp := *a
	cp.Parameters = copyMap(a.Parameters)
	cp.Annotations = copyMap(a.Annotations)
	cp.Immutable = make(map[string]struct{}, len(a.Immutable))
	for k := range a.Immutable {
		cp.Immutable[k] = struct{}{}
	}
	return &cp
}

func copyMap[M ~map[string]any](m M) M {
	if m == nil {
		return nil
	}
	cp := make(M, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// Compile-time interface verification.
var (
	_ entity.EntityStore  = (*EntityStore)(nil)
	_ entity.EntityWriter = (*EntityStore)(nil)
)
