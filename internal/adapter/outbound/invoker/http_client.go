package invoker

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/actiongate/actiongate/internal/domain/activation"
	"github.com/actiongate/actiongate/internal/port/outbound"
)

// maxResponseBodySize is the maximum activation body size accepted from
// the invoker. Prevents OOM from an unbounded response.
const maxResponseBodySize = 10 * 1024 * 1024 // 10MB

// HTTPClient submits blocking invocations to a remote invoker over HTTP.
// It implements the outbound.Invoker interface.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout for the HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// NewHTTPClient creates a client for the given invoker base URL.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// activationEnvelope is the wire form of a blocking invocation response.
type activationEnvelope struct {
	ActivationID string `json:"activationId"`
	Namespace    string `json:"namespace"`
	Name         string `json:"name"`
	Start        int64  `json:"start"`
	End          int64  `json:"end"`
	Response     struct {
		Status string          `json:"status"`
		Result json.RawMessage `json:"result"`
	} `json:"response"`
}

// Invoke posts the payload to the invoker and decodes the activation.
// A 202 from the invoker means the activation outlived the blocking wait
// and maps to a blocking timeout, carrying the activation id when the 202
// envelope names one.
func (c *HTTPClient) Invoke(ctx context.Context, req outbound.InvokeRequest) (*activation.Activation, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode invocation payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.invokeURL(req), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build invocation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, outbound.ErrBlockingTimeout
		}
		return nil, fmt.Errorf("invoke action: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Decoded below.
	case http.StatusAccepted:
		// The 202 envelope names the still-running activation.
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		if err == nil {
			var env activationEnvelope
			if json.Unmarshal(raw, &env) == nil && env.ActivationID != "" {
				return nil, &outbound.TimeoutError{ActivationID: env.ActivationID}
			}
		}
		return nil, outbound.ErrBlockingTimeout
	default:
		return nil, fmt.Errorf("invoker returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read activation body: %w", err)
	}

	var env activationEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode activation: %w", err)
	}

	return &activation.Activation{
		ID:        env.ActivationID,
		Namespace: env.Namespace,
		Name:      env.Name,
		Status:    activation.ParseStatus(env.Response.Status),
		Result:    env.Response.Result,
		Start:     time.UnixMilli(env.Start).UTC(),
		End:       time.UnixMilli(env.End).UTC(),
	}, nil
}

// invokeURL builds the blocking invocation URL for one action.
func (c *HTTPClient) invokeURL(req outbound.InvokeRequest) string {
	name := req.Action
	if req.Package != "" {
		name = req.Package + "/" + req.Action
	}
	return fmt.Sprintf("%s/namespaces/%s/actions/%s?blocking=true",
		c.endpoint, url.PathEscape(req.Namespace), escapePath(name))
}

// escapePath escapes each path segment, keeping the separators.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// Compile-time interface verification.
var _ outbound.Invoker = (*HTTPClient)(nil)
