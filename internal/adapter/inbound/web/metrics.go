package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// Metrics holds all Prometheus metrics for the gateway.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	InvocationsTotal *prometheus.CounterVec

	// OTelRequests mirrors RequestsTotal onto an OpenTelemetry counter
	// when a meter provider is configured. Nil otherwise.
	OTelRequests otelmetric.Int64Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actiongate",
				Name:      "requests_total",
				Help:      "Total number of web requests processed",
			},
			[]string{"method", "status"}, // status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "actiongate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets, // 5ms to 10s
			},
			[]string{"method"},
		),
		InvocationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actiongate",
				Name:      "invocations_total",
				Help:      "Web invocation outcomes by status class",
			},
			[]string{"class"}, // class=2xx/3xx/4xx/5xx
		),
	}
}

// RegisterThrottleGauge exposes the live throttle key count. The gauge
// reads size on every scrape, so it never goes stale.
func RegisterThrottleGauge(reg prometheus.Registerer, size func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "actiongate",
			Name:      "throttle_keys",
			Help:      "Number of active throttle keys",
		},
		func() float64 { return float64(size()) },
	))
}
