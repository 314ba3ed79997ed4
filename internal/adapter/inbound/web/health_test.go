package web

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/actiongate/actiongate/internal/adapter/outbound/memory"
)

func TestHealthChecker_Healthy(t *testing.T) {
	t.Parallel()

	hc := NewHealthChecker(memory.NewThrottler(), func() error { return nil }, "test")

	rec := httptest.NewRecorder()
	hc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Version != "test" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Checks["store"] != "ok" {
		t.Errorf("store check = %q", resp.Checks["store"])
	}
}

func TestHealthChecker_StoreDown(t *testing.T) {
	t.Parallel()

	hc := NewHealthChecker(nil, func() error { return errors.New("no such table") }, "")

	rec := httptest.NewRecorder()
	hc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 503 {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %q", resp.Status)
	}
	if resp.Checks["throttler"] != "not configured" {
		t.Errorf("throttler check = %q", resp.Checks["throttler"])
	}
}
