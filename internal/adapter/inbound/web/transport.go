package web

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/actiongate/actiongate/internal/service"
)

// Transport is the inbound adapter exposing the web action API over HTTP.
type Transport struct {
	svc    *service.WebActionService
	server *http.Server

	addr            string
	apiPrefix       string
	entityLimit     int64
	bodyReadTimeout time.Duration
	certFile        string
	keyFile         string
	tracerProvider  trace.TracerProvider
	meterProvider   otelmetric.MeterProvider
	throttleSize    func() int
	healthChecker   *HealthChecker
	metrics         *Metrics
	logger          *slog.Logger
}

// Option is a functional option for configuring Transport.
type Option func(*Transport)

// WithAddr sets the listen address for the HTTP server.
// Default is "127.0.0.1:8080" (localhost only).
func WithAddr(addr string) Option {
	return func(t *Transport) {
		t.addr = addr
	}
}

// WithAPIPrefix sets the route prefix ahead of /web/ (default "/api/v1").
func WithAPIPrefix(prefix string) Option {
	return func(t *Transport) {
		t.apiPrefix = strings.TrimRight(prefix, "/")
	}
}

// WithEntityLimit bounds the request entity size in bytes.
func WithEntityLimit(limit int64) Option {
	return func(t *Transport) {
		t.entityLimit = limit
	}
}

// WithBodyReadTimeout bounds how long the server waits for a request body.
func WithBodyReadTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.bodyReadTimeout = d
	}
}

// WithTLS enables TLS with the provided certificate and key files.
// If not set, the server runs without TLS (plain HTTP).
func WithTLS(certFile, keyFile string) Option {
	return func(t *Transport) {
		t.certFile = certFile
		t.keyFile = keyFile
	}
}

// WithTracerProvider enables per-request tracing.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Transport) {
		t.tracerProvider = tp
	}
}

// WithMeterProvider mirrors request counts onto an OpenTelemetry meter
// alongside the Prometheus registry.
func WithMeterProvider(mp otelmetric.MeterProvider) Option {
	return func(t *Transport) {
		t.meterProvider = mp
	}
}

// WithThrottleSize exposes the live throttle key count as a gauge.
func WithThrottleSize(size func() int) Option {
	return func(t *Transport) {
		t.throttleSize = size
	}
}

// WithHealthChecker sets the health checker for the /health endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *Transport) {
		t.healthChecker = hc
	}
}

// WithLogger sets the logger for the transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates the HTTP transport wrapping the given service.
func NewTransport(svc *service.WebActionService, opts ...Option) *Transport {
	t := &Transport{
		svc:             svc,
		addr:            "127.0.0.1:8080",
		apiPrefix:       "/api/v1",
		entityLimit:     1 << 20, // 1MB
		bodyReadTimeout: 30 * time.Second,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Start begins accepting HTTP connections and serving web invocations.
// It blocks until the context is cancelled or an error occurs.
func (t *Transport) Start(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	t.metrics = NewMetrics(reg)
	if t.throttleSize != nil {
		RegisterThrottleGauge(reg, t.throttleSize)
	}
	if t.meterProvider != nil {
		meter := t.meterProvider.Meter("actiongate/web")
		counter, err := meter.Int64Counter("actiongate.requests",
			otelmetric.WithDescription("Web requests by method and outcome"))
		if err != nil {
			return fmt.Errorf("create request counter: %w", err)
		}
		t.metrics.OTelRequests = counter
	}

	route := t.apiPrefix + "/web"
	webHandler := http.Handler(NewHandler(t.svc, route, t.entityLimit, t.metrics, t.logger))

	// Middleware order (outermost first):
	// 1. MetricsMiddleware - outermost so it captures full duration
	// 2. TracingMiddleware - span around id assignment and handling
	// 3. TransactionIDMiddleware - id and logger enrichment
	webHandler = TransactionIDMiddleware(t.logger)(webHandler)
	if t.tracerProvider != nil {
		webHandler = TracingMiddleware(t.tracerProvider)(webHandler)
	}
	webHandler = MetricsMiddleware(t.metrics)(webHandler)

	mux := http.NewServeMux()
	if t.healthChecker != nil {
		mux.Handle("/health", t.healthChecker.Handler())
	} else {
		mux.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		}))
	}
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry: reg,
	}))
	mux.Handle(route+"/", webHandler)

	t.server = &http.Server{
		Addr:              t.addr,
		Handler:           mux,
		ReadTimeout:       t.bodyReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if t.certFile != "" && t.keyFile != "" {
		t.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	errCh := make(chan error, 1)

	go func() {
		var err error
		if t.certFile != "" && t.keyFile != "" {
			t.logger.Info("starting HTTPS server", "addr", t.addr, "route", route)
			err = t.server.ListenAndServeTLS(t.certFile, t.keyFile)
		} else {
			t.logger.Info("starting HTTP server", "addr", t.addr, "route", route)
			err = t.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP server")
		return t.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (t *Transport) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.server.Shutdown(ctx); err != nil {
		t.logger.Error("error during server shutdown", "error", err)
		return err
	}

	t.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the transport.
func (t *Transport) Close() error {
	if t.server == nil {
		return nil
	}
	return t.shutdown()
}
