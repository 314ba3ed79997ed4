package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/actiongate/actiongate/internal/domain/entity"
	"github.com/actiongate/actiongate/internal/domain/identity"
)

// seedFile is the on-disk shape of a seed document.
type seedFile struct {
	Identities []seedIdentity `yaml:"identities"`
	Packages   []seedPackage  `yaml:"packages"`
	Actions    []seedAction   `yaml:"actions"`
}

type seedIdentity struct {
	Namespace string `yaml:"namespace"`
	Subject   string `yaml:"subject"`
	Key       struct {
		UUID string `yaml:"uuid"`
		// Secret is a raw secret, hashed at load time. SecretHash is a
		// pre-hashed value stored verbatim. Exactly one should be set.
		Secret     string `yaml:"secret"`
		SecretHash string `yaml:"secretHash"`
	} `yaml:"key"`
	ActivationsPerMinute int `yaml:"activationsPerMinute"`
}

type seedPackage struct {
	Namespace   string         `yaml:"namespace"`
	Name        string         `yaml:"name"`
	Binding     bool           `yaml:"binding"`
	Publish     bool           `yaml:"publish"`
	Parameters  map[string]any `yaml:"parameters"`
	Annotations map[string]any `yaml:"annotations"`
}

type seedAction struct {
	Namespace   string         `yaml:"namespace"`
	Package     string         `yaml:"package"`
	Name        string         `yaml:"name"`
	Parameters  map[string]any `yaml:"parameters"`
	Annotations map[string]any `yaml:"annotations"`
}

// SeedService loads identities, packages, and actions from a YAML document
// into the stores at startup.
type SeedService struct {
	entities entity.EntityWriter
	auth     identity.AuthWriter
	logger   *slog.Logger
}

// NewSeedService creates a seed service writing to the given stores.
func NewSeedService(entities entity.EntityWriter, auth identity.AuthWriter, logger *slog.Logger) *SeedService {
	return &SeedService{entities: entities, auth: auth, logger: logger}
}

// LoadFile reads and applies a seed document from path.
func (s *SeedService) LoadFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	return s.Load(ctx, raw)
}

// Load applies a seed document. Entity names are validated; action
// parameters go through wrapper parsing so final-flagged parameters land
// in the immutable set.
func (s *SeedService) Load(ctx context.Context, raw []byte) error {
	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}

	for i, id := range doc.Identities {
		if !entity.ValidName(id.Namespace) {
			return fmt.Errorf("identity %d: invalid namespace %q", i, id.Namespace)
		}
		secret := id.Key.SecretHash
		if secret == "" {
			secret = identity.HashSecret(id.Key.Secret)
		}
		err := s.auth.PutIdentity(ctx, &identity.Identity{
			Subject:   id.Subject,
			Namespace: id.Namespace,
			Key: identity.AuthKey{
				UUID:   id.Key.UUID,
				Secret: secret,
			},
			Limits: identity.Limits{ActivationsPerMinute: id.ActivationsPerMinute},
		})
		if err != nil {
			return fmt.Errorf("seed identity %s: %w", id.Namespace, err)
		}
	}

	for i, p := range doc.Packages {
		if !entity.ValidName(p.Namespace) || !entity.ValidName(p.Name) {
			return fmt.Errorf("package %d: invalid name %s/%s", i, p.Namespace, p.Name)
		}
		err := s.entities.PutPackage(ctx, &entity.Package{
			Namespace:   p.Namespace,
			Name:        p.Name,
			IsBinding:   p.Binding,
			Publish:     p.Publish,
			Parameters:  p.Parameters,
			Annotations: p.Annotations,
		})
		if err != nil {
			return fmt.Errorf("seed package %s/%s: %w", p.Namespace, p.Name, err)
		}
	}

	for i, a := range doc.Actions {
		if !entity.ValidName(a.Namespace) || !entity.ValidName(a.Name) {
			return fmt.Errorf("action %d: invalid name %s/%s", i, a.Namespace, a.Name)
		}
		if a.Package != "" && !entity.ValidName(a.Package) {
			return fmt.Errorf("action %d: invalid package %q", i, a.Package)
		}
		values, immutable := entity.ParseParameters(a.Parameters)
		err := s.entities.PutAction(ctx, &entity.Action{
			Namespace:   a.Namespace,
			Package:     a.Package,
			Name:        a.Name,
			Parameters:  values,
			Immutable:   immutable,
			Annotations: a.Annotations,
		})
		if err != nil {
			return fmt.Errorf("seed action %s: %w", a.Name, err)
		}
	}

	s.logger.Info("seed applied",
		"identities", len(doc.Identities),
		"packages", len(doc.Packages),
		"actions", len(doc.Actions))
	return nil
}
