package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/actiongate/actiongate/internal/adapter/outbound/memory"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"` // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"` // Component check results
	Version string            `json:"version,omitempty"`
}

// HealthChecker verifies component health.
type HealthChecker struct {
	throttler *memory.Throttler
	pinger    func() error // optional store liveness probe
	version   string
}

// NewHealthChecker creates a HealthChecker with optional components.
// Pass nil for components that aren't available.
func NewHealthChecker(throttler *memory.Throttler, pinger func() error, version string) *HealthChecker {
	return &HealthChecker{
		throttler: throttler,
		pinger:    pinger,
		version:   version,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.throttler != nil {
		// Size() acquires the lock; a hang here means a real problem
		checks["throttler"] = fmt.Sprintf("ok: %d keys", h.throttler.Size())
	} else {
		checks["throttler"] = "not configured"
	}

	if h.pinger != nil {
		if err := h.pinger(); err != nil {
			checks["store"] = "unavailable: " + err.Error()
			healthy = false
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}
