package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/actiongate/actiongate/internal/domain/webaction"
	"github.com/actiongate/actiongate/internal/service"
)

// Handler serves the web action route. One instance handles all methods;
// the service decides everything beyond path shape and body limits.
type Handler struct {
	svc         *service.WebActionService
	route       string
	entityLimit int64
	metrics     *Metrics
	logger      *slog.Logger
}

// NewHandler creates the web action handler. route is the mounted path
// prefix up to and including "/web" (e.g. "/api/v1/web").
func NewHandler(svc *service.WebActionService, route string, entityLimit int64, metrics *Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		svc:         svc,
		route:       route,
		entityLimit: entityLimit,
		metrics:     metrics,
		logger:      logger,
	}
}

// ServeHTTP decodes the request, runs the invocation pipeline, and writes
// the synthesized response. All failures render the canonical error body;
// HEAD responses carry headers only.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context())

	req, err := decodeRequest(w, r, h.route, h.svc.Directives(), h.entityLimit)
	if err != nil {
		h.writeError(w, r, logger, err)
		return
	}

	resp, err := h.svc.Handle(r.Context(), req)
	if err != nil {
		h.writeError(w, r, logger, err)
		return
	}

	h.observe(resp.Status)
	writeResponse(w, r, resp)
}

// writeError renders the canonical JSON error body and logs one entry.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	rej := webaction.AsReject(err)
	txid := TransactionIDFromContext(r.Context())

	if rej.Code >= 500 {
		logger.Error("request failed", "status", rej.Code, "error", err)
	} else {
		logger.Info("request rejected", "status", rej.Code, "message", rej.Message)
	}
	h.observe(rej.Code)

	fields := map[string]string{
		"error": rej.Message,
		"code":  txid,
	}
	if rej.ActivationID != "" {
		fields["activationId"] = rej.ActivationID
	}
	body, _ := json.Marshal(fields)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rej.Code)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func (h *Handler) observe(status int) {
	if h.metrics != nil {
		h.metrics.InvocationsTotal.WithLabelValues(statusClass(status)).Inc()
	}
}

// writeResponse emits a transcoded action response. User-supplied headers
// go first so they cannot clobber Content-Type.
func writeResponse(w http.ResponseWriter, r *http.Request, resp *webaction.Response) {
	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead && len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func statusClass(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
