package invoker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/actiongate/actiongate/internal/domain/activation"
	"github.com/actiongate/actiongate/internal/port/outbound"
)

func TestHTTPClient_Invoke(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/namespaces/guest/actions/demo/hello" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("blocking") != "true" {
			t.Error("blocking=true query parameter missing")
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["name"] != "world" {
			t.Errorf("payload = %v", payload)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"activationId": "abc123",
			"namespace": "guest",
			"name": "demo/hello",
			"start": 1700000000000,
			"end": 1700000000100,
			"response": {"status": "success", "result": {"greeting": "hello world"}}
		}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	act, err := client.Invoke(context.Background(), outbound.InvokeRequest{
		Namespace: "guest",
		Package:   "demo",
		Action:    "hello",
		Payload:   map[string]any{"name": "world"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if act.ID != "abc123" {
		t.Errorf("ID = %q", act.ID)
	}
	if act.Status != activation.StatusSuccess {
		t.Errorf("Status = %v", act.Status)
	}
	if string(act.Result) != `{"greeting": "hello world"}` {
		t.Errorf("Result = %s", act.Result)
	}
	if act.Start.UnixMilli() != 1700000000000 {
		t.Errorf("Start = %v", act.Start)
	}
}

func TestHTTPClient_Accepted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"activationId": "abc123"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.Invoke(context.Background(), outbound.InvokeRequest{
		Namespace: "guest",
		Action:    "slow",
	})
	if !errors.Is(err, outbound.ErrBlockingTimeout) {
		t.Errorf("err = %v, want ErrBlockingTimeout", err)
	}
	// The 202 envelope's activation id survives the error mapping.
	var timeout *outbound.TimeoutError
	if !errors.As(err, &timeout) || timeout.ActivationID != "abc123" {
		t.Errorf("err = %#v, want TimeoutError with activation abc123", err)
	}
}

func TestHTTPClient_AcceptedWithoutEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.Invoke(context.Background(), outbound.InvokeRequest{
		Namespace: "guest",
		Action:    "slow",
	})
	if !errors.Is(err, outbound.ErrBlockingTimeout) {
		t.Errorf("err = %v, want ErrBlockingTimeout", err)
	}
	var timeout *outbound.TimeoutError
	if errors.As(err, &timeout) {
		t.Errorf("empty 202 body must not produce an activation id, got %q", timeout.ActivationID)
	}
}

func TestHTTPClient_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.Invoke(context.Background(), outbound.InvokeRequest{
		Namespace: "guest",
		Action:    "broken",
	})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if errors.Is(err, outbound.ErrBlockingTimeout) {
		t.Error("500 must not map to the blocking timeout")
	}
}

func TestHTTPClient_DeadlineExceeded(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Invoke(ctx, outbound.InvokeRequest{Namespace: "guest", Action: "slow"})
	if !errors.Is(err, outbound.ErrBlockingTimeout) {
		t.Errorf("err = %v, want ErrBlockingTimeout", err)
	}
}

func TestHTTPClient_PathEscaping(t *testing.T) {
	t.Parallel()

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"response":{"status":"success","result":{}}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.Invoke(context.Background(), outbound.InvokeRequest{
		Namespace: "guest",
		Package:   "my pkg",
		Action:    "hello world",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if gotPath != "/namespaces/guest/actions/my%20pkg/hello%20world" {
		t.Errorf("path = %q", gotPath)
	}
}
