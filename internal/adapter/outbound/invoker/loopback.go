// Package invoker provides invoker adapters for executing actions.
package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/actiongate/actiongate/internal/domain/activation"
	"github.com/actiongate/actiongate/internal/port/outbound"
)

// Handler produces an action result from the merged payload.
type Handler func(payload map[string]any) (json.RawMessage, activation.Status)

// Loopback executes actions in process. Handlers are registered per
// fully-qualified action name; unregistered actions echo their payload.
// Thread-safe for concurrent access. For development/testing only.
type Loopback struct {
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewLoopback creates a loopback invoker with no registered handlers.
func NewLoopback() *Loopback {
	return &Loopback{handlers: make(map[string]Handler)}
}

// Register installs a handler for namespace/package/action. An empty
// package registers under the default package.
func (l *Loopback) Register(namespace, pkg, action string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[qualifiedName(namespace, pkg, action)] = h
}

// Invoke runs the registered handler, or echoes the payload when none is
// registered. The context deadline is honored.
func (l *Loopback) Invoke(ctx context.Context, req outbound.InvokeRequest) (*activation.Activation, error) {
	if err := ctx.Err(); err != nil {
		return nil, outbound.ErrBlockingTimeout
	}

	l.mu.RLock()
	h, ok := l.handlers[qualifiedName(req.Namespace, req.Package, req.Action)]
	l.mu.RUnlock()

	start := time.Now().UTC()
	var (
		result json.RawMessage
		status activation.Status
	)
	if ok {
		result, status = h(req.Payload)
	} else {
		echoed, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode loopback payload: %w", err)
		}
		result, status = echoed, activation.StatusSuccess
	}

	return &activation.Activation{
		ID:        uuid.NewString(),
		Namespace: req.Namespace,
		Name:      qualifiedName(req.Namespace, req.Package, req.Action),
		Status:    status,
		Result:    result,
		Start:     start,
		End:       time.Now().UTC(),
	}, nil
}

func qualifiedName(namespace, pkg, action string) string {
	if pkg == "" {
		pkg = "default"
	}
	return namespace + "/" + pkg + "/" + action
}

// Compile-time interface verification.
var _ outbound.Invoker = (*Loopback)(nil)
