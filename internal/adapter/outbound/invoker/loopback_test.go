package invoker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/actiongate/actiongate/internal/domain/activation"
	"github.com/actiongate/actiongate/internal/port/outbound"
)

func TestLoopback_Echo(t *testing.T) {
	t.Parallel()

	lb := NewLoopback()

	act, err := lb.Invoke(context.Background(), outbound.InvokeRequest{
		Namespace: "guest",
		Package:   "demo",
		Action:    "echo",
		Payload:   map[string]any{"name": "world"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if act.Status != activation.StatusSuccess {
		t.Errorf("Status = %v", act.Status)
	}
	if act.Name != "guest/demo/echo" {
		t.Errorf("Name = %q", act.Name)
	}
	if act.ID == "" {
		t.Error("activation ID must be set")
	}

	var result map[string]any
	if err := json.Unmarshal(act.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result["name"] != "world" {
		t.Errorf("echoed payload = %v", result)
	}
}

func TestLoopback_RegisteredHandler(t *testing.T) {
	t.Parallel()

	lb := NewLoopback()
	lb.Register("guest", "", "fail", func(payload map[string]any) (json.RawMessage, activation.Status) {
		return json.RawMessage(`{"error":"boom"}`), activation.StatusApplicationError
	})

	act, err := lb.Invoke(context.Background(), outbound.InvokeRequest{
		Namespace: "guest",
		Action:    "fail",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if act.Status != activation.StatusApplicationError {
		t.Errorf("Status = %v, want application error", act.Status)
	}
	if act.Name != "guest/default/fail" {
		t.Errorf("Name = %q", act.Name)
	}
}

func TestLoopback_CancelledContext(t *testing.T) {
	t.Parallel()

	lb := NewLoopback()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lb.Invoke(ctx, outbound.InvokeRequest{Namespace: "guest", Action: "echo"})
	if !errors.Is(err, outbound.ErrBlockingTimeout) {
		t.Errorf("err = %v, want ErrBlockingTimeout", err)
	}
}
