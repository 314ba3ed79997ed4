// Package entitlement provides invocation throttling domain types.
package entitlement

import (
	"fmt"
	"time"
)

// Limit defines the throttle parameters applied to one namespace.
type Limit struct {
	// Rate is the number of allowed activations in the period.
	Rate int

	// Burst is the maximum number of activations that can occur at once.
	// Burst should be >= Rate for meaningful operation.
	Burst int

	// Period is the time window for the limit.
	Period time.Duration
}

// PerMinute builds a Limit of rate activations per minute with an equal
// burst allowance.
func PerMinute(rate int) Limit {
	return Limit{Rate: rate, Burst: rate, Period: time.Minute}
}

// Decision contains the result of a throttle check.
type Decision struct {
	// Allowed indicates whether the activation may proceed.
	Allowed bool

	// Remaining is the number of remaining activations in the window.
	Remaining int

	// RetryAfter is the duration until the next activation will be
	// allowed. Only meaningful when Allowed is false.
	RetryAfter time.Duration

	// ResetAfter is the duration until the limit resets.
	ResetAfter time.Duration
}

// keyPrefix is the base prefix for all throttle keys.
const keyPrefix = "throttle"

// FormatKey returns a structured throttle key for a namespace.
// Format: "throttle:namespace:{name}"
func FormatKey(namespace string) string {
	return fmt.Sprintf("%s:namespace:%s", keyPrefix, namespace)
}
