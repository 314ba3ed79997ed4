package entitlement

import "context"

// Throttler is the interface for activation-rate enforcement.
//
// Implementations should use the GCRA (Generic Cell Rate Algorithm)
// for smooth rate limiting without burst issues at window boundaries.
// The interface is storage-agnostic; the bundled implementation is
// in-memory.
type Throttler interface {
	// Allow checks whether a request identified by key may proceed under
	// the given limit, atomically consuming one slot on success.
	//
	// The key should be a structured identifier created by FormatKey.
	// When the request is not allowed, RetryAfter in the decision
	// indicates when the next request will be.
	Allow(ctx context.Context, key string, limit Limit) (Decision, error)
}
