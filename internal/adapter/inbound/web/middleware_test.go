package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestTransactionIDMiddleware_Assigns(t *testing.T) {
	t.Parallel()

	var gotTxid string
	var hadLogger bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTxid = TransactionIDFromContext(r.Context())
		hadLogger = LoggerFromContext(r.Context()) != nil
	})

	rec := httptest.NewRecorder()
	TransactionIDMiddleware(testLogger())(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if gotTxid == "" {
		t.Error("transaction id not assigned")
	}
	if rec.Header().Get("X-Request-ID") != gotTxid {
		t.Errorf("X-Request-ID = %q, context id = %q", rec.Header().Get("X-Request-ID"), gotTxid)
	}
	if !hadLogger {
		t.Error("enriched logger missing from context")
	}
}

func TestTransactionIDMiddleware_EchoesIncoming(t *testing.T) {
	t.Parallel()

	var gotTxid string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTxid = TransactionIDFromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "caller-chosen")
	rec := httptest.NewRecorder()
	TransactionIDMiddleware(testLogger())(inner).ServeHTTP(rec, req)

	if gotTxid != "caller-chosen" {
		t.Errorf("txid = %q, want caller-chosen", gotTxid)
	}
	if rec.Header().Get("X-Request-ID") != "caller-chosen" {
		t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestTransactionIDFromContext_Unset(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)
	if id := TransactionIDFromContext(req.Context()); id != "" {
		t.Errorf("id = %q, want empty", id)
	}
	if LoggerFromContext(req.Context()) == nil {
		t.Error("LoggerFromContext must fall back to the default logger")
	}
}

func TestMetricsMiddleware_Records(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	handler := MetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/web/guest/default/x.json", nil))

	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "error")); got != 1 {
		t.Errorf("requests_total{GET,error} = %v, want 1", got)
	}
	if got := histogramCount(t, reg, "actiongate_request_duration_seconds"); got != 1 {
		t.Errorf("request_duration_seconds count = %d, want 1", got)
	}

	// Operational endpoints bypass the recorder.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "error")); got != 1 {
		t.Errorf("requests_total{GET,error} after /metrics = %v, want 1", got)
	}
}

func histogramCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var family *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == name {
			family = mf
			break
		}
	}
	if family == nil {
		t.Fatalf("metric family %q not found", name)
	}
	var total uint64
	for _, m := range family.GetMetric() {
		total += m.GetHistogram().GetSampleCount()
	}
	return total
}

func TestMetricsMiddleware_OTelMirror(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	counter, err := mp.Meter("actiongate/web").Int64Counter("actiongate.requests")
	if err != nil {
		t.Fatalf("Int64Counter: %v", err)
	}

	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.OTelRequests = counter
	handler := MetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/web/guest/default/x.json", nil))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rm.ScopeMetrics) != 1 || len(rm.ScopeMetrics[0].Metrics) != 1 {
		t.Fatalf("unexpected metric shape: %+v", rm.ScopeMetrics)
	}
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("Data = %T, want Sum[int64]", rm.ScopeMetrics[0].Metrics[0].Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("data points = %+v, want one point of value 1", sum.DataPoints)
	}
}

func TestStatusClass(t *testing.T) {
	t.Parallel()

	cases := map[int]string{200: "2xx", 302: "3xx", 404: "4xx", 500: "5xx"}
	for status, want := range cases {
		if got := statusClass(status); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", status, got, want)
		}
	}
}
