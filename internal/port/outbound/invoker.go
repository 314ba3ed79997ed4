// Package outbound defines the outbound port interfaces for reaching the
// invoker backend.
package outbound

import (
	"context"
	"errors"

	"github.com/actiongate/actiongate/internal/domain/activation"
)

// ErrBlockingTimeout is returned when a blocking invocation does not
// complete within the allowed wait.
var ErrBlockingTimeout = errors.New("blocking invocation timed out")

// TimeoutError is a blocking timeout that carries the id of the activation
// still running on the invoker, so the caller can poll for the result.
// errors.Is(err, ErrBlockingTimeout) matches it.
type TimeoutError struct {
	ActivationID string
}

func (e *TimeoutError) Error() string {
	return "blocking invocation timed out, activation " + e.ActivationID + " still running"
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrBlockingTimeout
}

// InvokeRequest describes one blocking invocation.
type InvokeRequest struct {
	// Namespace is the action owner namespace.
	Namespace string
	// Package is the containing package name, or empty for the default
	// package.
	Package string
	// Action is the action name.
	Action string
	// Payload is the merged invocation payload.
	Payload map[string]any
}

// Invoker is the outbound port for executing actions. Adapters implement
// this to support different backends (loopback for dev, HTTP for a real
// invoker).
type Invoker interface {
	// Invoke runs the action as a blocking call and returns its
	// activation. Returns ErrBlockingTimeout when the wait bound expires
	// before the result is available; the activation may still complete
	// in the background.
	Invoke(ctx context.Context, req InvokeRequest) (*activation.Activation, error)
}
