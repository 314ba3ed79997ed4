// Package identity contains the domain types and logic for caller
// authentication.
package identity

// AuthKey is the credential pair of an identity. The secret is stored
// hashed; raw secrets appear only on the wire.
type AuthKey struct {
	// UUID is the public half of the credential.
	UUID string
	// Secret is the stored hash of the secret half (SHA-256 hex or
	// Argon2id PHC format).
	Secret string
}

// Limits are the per-identity quota settings.
type Limits struct {
	// ActivationsPerMinute caps sustained invocation rate. Zero means
	// the deployment default applies.
	ActivationsPerMinute int
}

// Identity represents a namespace owner. Identities are immutable once
// created; the auth store caches them by namespace.
type Identity struct {
	// Subject is the account name the identity belongs to.
	Subject string
	// Namespace is the namespace the identity controls.
	Namespace string
	// Key is the identity's credential.
	Key AuthKey
	// Limits are the identity's quota settings.
	Limits Limits
}
