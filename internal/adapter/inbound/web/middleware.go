package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/actiongate/actiongate/internal/ctxkey"
)

// TransactionIDKey is the context key for the transaction id.
var TransactionIDKey = ctxkey.TransactionIDKey{}

// LoggerKey is the context key for the enriched logger.
// Uses the shared key type from ctxkey to allow cross-package access
// without import cycles.
var LoggerKey = ctxkey.LoggerKey{}

// TransactionIDMiddleware assigns every request a transaction id and
// enriches the logger with it. The id is echoed in X-Request-ID and is the
// "code" field of error bodies.
func TransactionIDMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			txid := r.Header.Get("X-Request-ID")
			if txid == "" {
				txid = uuid.New().String()
			}

			enriched := logger.With("transaction_id", txid)

			ctx := context.WithValue(r.Context(), TransactionIDKey, txid)
			ctx = context.WithValue(ctx, LoggerKey, enriched)

			w.Header().Set("X-Request-ID", txid)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TransactionIDFromContext retrieves the transaction id, or "" when the
// middleware did not run.
func TransactionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(TransactionIDKey).(string)
	return id
}

// LoggerFromContext retrieves the enriched logger from context.
// Returns slog.Default() if no logger is in context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// MetricsMiddleware wraps an HTTP handler to record Prometheus metrics.
// It records:
// - request_duration_seconds histogram (by method)
// - requests_total counter (by method and status)
func MetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for the operational endpoints
			if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			metrics.RequestDuration.WithLabelValues(r.Method).Observe(duration)
			metrics.RequestsTotal.WithLabelValues(r.Method, statusToLabel(wrapped.status)).Inc()
			if metrics.OTelRequests != nil {
				metrics.OTelRequests.Add(r.Context(), 1, otelmetric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("status", statusToLabel(wrapped.status)),
				))
			}
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush delegates to the underlying ResponseWriter if it supports
// http.Flusher.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// statusToLabel converts an HTTP status code to a label value.
func statusToLabel(code int) string {
	if code >= 200 && code < 400 {
		return "ok"
	}
	return "error"
}
