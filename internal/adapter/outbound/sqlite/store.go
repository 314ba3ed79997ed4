// Package sqlite provides a SQLite-backed implementation of the entity
// and auth stores. Intended for single-node deployments where entities
// must survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/actiongate/actiongate/internal/domain/entity"
	"github.com/actiongate/actiongate/internal/domain/identity"
)

const schema = `
CREATE TABLE IF NOT EXISTS identities (
	namespace   TEXT PRIMARY KEY,
	subject     TEXT NOT NULL,
	key_uuid    TEXT NOT NULL UNIQUE,
	key_secret  TEXT NOT NULL,
	rate_limit  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS packages (
	namespace   TEXT NOT NULL,
	name        TEXT NOT NULL,
	is_binding  INTEGER NOT NULL DEFAULT 0,
	publish     INTEGER NOT NULL DEFAULT 0,
	parameters  TEXT NOT NULL DEFAULT '{}',
	annotations TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (namespace, name)
);

CREATE TABLE IF NOT EXISTS actions (
	namespace   TEXT NOT NULL,
	package     TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL,
	parameters  TEXT NOT NULL DEFAULT '{}',
	immutable   TEXT NOT NULL DEFAULT '[]',
	annotations TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (namespace, package, name)
);
`

// Store implements the entity and auth stores on a SQLite database.
// Safe for concurrent use; database/sql serializes access to the single
// writer connection SQLite allows.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The sqlite driver supports one writer; cap the pool so writes do
	// not contend for new connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// GetIdentityByNamespace retrieves the identity owning a namespace.
// Returns identity.ErrIdentityNotFound if the namespace has no owner.
func (s *Store) GetIdentityByNamespace(ctx context.Context, namespace string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT namespace, subject, key_uuid, key_secret, rate_limit
		 FROM identities WHERE namespace = ?`, namespace)
	return scanIdentity(row)
}

// GetIdentityByUUID retrieves an identity by its key UUID.
// Returns identity.ErrIdentityNotFound if no key matches.
func (s *Store) GetIdentityByUUID(ctx context.Context, uuid string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT namespace, subject, key_uuid, key_secret, rate_limit
		 FROM identities WHERE key_uuid = ?`, uuid)
	return scanIdentity(row)
}

func scanIdentity(row *sql.Row) (*identity.Identity, error) {
	var id identity.Identity
	err := row.Scan(&id.Namespace, &id.Subject, &id.Key.UUID, &id.Key.Secret,
		&id.Limits.ActivationsPerMinute)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	return &id, nil
}

// PutIdentity creates or replaces an identity.
func (s *Store) PutIdentity(ctx context.Context, id *identity.Identity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (namespace, subject, key_uuid, key_secret, rate_limit)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (namespace) DO UPDATE SET
		   subject = excluded.subject,
		   key_uuid = excluded.key_uuid,
		   key_secret = excluded.key_secret,
		   rate_limit = excluded.rate_limit`,
		id.Namespace, id.Subject, id.Key.UUID, id.Key.Secret,
		id.Limits.ActivationsPerMinute)
	if err != nil {
		return fmt.Errorf("put identity: %w", err)
	}
	return nil
}

// GetPackage retrieves a package by namespace and name.
// Returns entity.ErrNotFound if the package does not exist.
func (s *Store) GetPackage(ctx context.Context, namespace, name string) (*entity.Package, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT namespace, name, is_binding, publish, parameters, annotations
		 FROM packages WHERE namespace = ? AND name = ?`, namespace, name)

	var (
		p                entity.Package
		params, annots   string
		binding, publish int
	)
	err := row.Scan(&p.Namespace, &p.Name, &binding, &publish, &params, &annots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan package: %w", err)
	}
	p.IsBinding = binding != 0
	p.Publish = publish != 0
	if err := json.Unmarshal([]byte(params), &p.Parameters); err != nil {
		return nil, fmt.Errorf("decode package parameters: %w", err)
	}
	var a map[string]any
	if err := json.Unmarshal([]byte(annots), &a); err != nil {
		return nil, fmt.Errorf("decode package annotations: %w", err)
	}
	p.Annotations = a
	return &p, nil
}

// GetAction retrieves an action. pkg is empty for the default package.
// Returns entity.ErrNotFound if the action does not exist.
func (s *Store) GetAction(ctx context.Context, namespace, pkg, name string) (*entity.Action, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT namespace, package, name, parameters, immutable, annotations
		 FROM actions WHERE namespace = ? AND package = ? AND name = ?`,
		namespace, pkg, name)

	var (
		a                         entity.Action
		params, immutable, annots string
	)
	err := row.Scan(&a.Namespace, &a.Package, &a.Name, &params, &immutable, &annots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan action: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &a.Parameters); err != nil {
		return nil, fmt.Errorf("decode action parameters: %w", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(immutable), &names); err != nil {
		return nil, fmt.Errorf("decode immutable names: %w", err)
	}
	a.Immutable = make(map[string]struct{}, len(names))
	for _, n := range names {
		a.Immutable[n] = struct{}{}
	}
	var an map[string]any
	if err := json.Unmarshal([]byte(annots), &an); err != nil {
		return nil, fmt.Errorf("decode action annotations: %w", err)
	}
	a.Annotations = an
	return &a, nil
}

// PutPackage creates or replaces a package.
func (s *Store) PutPackage(ctx context.Context, p *entity.Package) error {
	params, err := encodeMap(p.Parameters)
	if err != nil {
		return fmt.Errorf("encode package parameters: %w", err)
	}
	annots, err := encodeMap(p.Annotations)
	if err != nil {
		return fmt.Errorf("encode package annotations: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO packages (namespace, name, is_binding, publish, parameters, annotations)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, name) DO UPDATE SET
		   is_binding = excluded.is_binding,
		   publish = excluded.publish,
		   parameters = excluded.parameters,
		   annotations = excluded.annotations`,
		p.Namespace, p.Name, boolInt(p.IsBinding), boolInt(p.Publish), params, annots)
	if err != nil {
		return fmt.Errorf("put package: %w", err)
	}
	return nil
}

// PutAction creates or replaces an action.
func (s *Store) PutAction(ctx context.Context, a *entity.Action) error {
	params, err := encodeMap(a.Parameters)
	if err != nil {
		return fmt.Errorf("encode action parameters: %w", err)
	}
	annots, err := encodeMap(a.Annotations)
	if err != nil {
		return fmt.Errorf("encode action annotations: %w", err)
	}
	names := make([]string, 0, len(a.Immutable))
	for n := range a.Immutable {
		names = append(names, n)
	}
	immutable, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encode immutable names: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO actions (namespace, package, name, parameters, immutable, annotations)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, package, name) DO UPDATE SET
		   parameters = excluded.parameters,
		   immutable = excluded.immutable,
		   annotations = excluded.annotations`,
		a.Namespace, a.Package, a.Name, params, string(immutable), annots)
	if err != nil {
		return fmt.Errorf("put action: %w", err)
	}
	return nil
}

func encodeMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface verification.
var (
	_ entity.EntityStore  = (*Store)(nil)
	_ entity.EntityWriter = (*Store)(nil)
	_ identity.AuthStore  = (*Store)(nil)
	_ identity.AuthWriter = (*Store)(nil)
)
