package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// ErrInvalidCredentials is returned when a presented secret does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnknownHashType is returned when a stored hash has an unrecognized format.
var ErrUnknownHashType = errors.New("unknown hash type")

// HashSecret returns the SHA-256 hex hash of the raw secret. Used for
// seeded identities where fast lookup matters more than hardening.
func HashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// argon2idParams follow the OWASP minimum for Argon2id.
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashSecretArgon2id returns an Argon2id hash of the raw secret in PHC
// format, with a random salt.
func HashSecretArgon2id(raw string) (string, error) {
	return argon2id.CreateHash(raw, argon2idParams)
}

// VerifySecret verifies a raw secret against a stored hash. Argon2id PHC
// hashes and SHA-256 hex hashes (bare or "sha256:"-prefixed) are
// recognized. Comparison is constant time.
func VerifySecret(raw, stored string) (bool, error) {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		return safeArgon2idCompare(raw, stored)
	case strings.HasPrefix(stored, "sha256:"):
		return constantTimeEqual(HashSecret(raw), strings.TrimPrefix(stored, "sha256:")), nil
	case len(stored) == 64 && isHexString(stored):
		return constantTimeEqual(HashSecret(raw), stored), nil
	default:
		return false, ErrUnknownHashType
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func isHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// safeArgon2idCompare wraps argon2id.ComparePasswordAndHash with panic
// recovery. The underlying library panics on malformed hashes with invalid
// parameters; those become errors here.
func safeArgon2idCompare(raw, stored string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(raw, stored)
}
