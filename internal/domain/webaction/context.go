package webaction

import (
	"net/http"
	"net/url"
	"strings"
)

// Context is the ephemeral per-request record consumed by the invocation
// stage. It is constructed by the request decoder and discarded when the
// response is written.
type Context struct {
	// Method is the HTTP verb of the request.
	Method string

	// Headers are the request headers as received.
	Headers http.Header

	// Path is the URL suffix after the action-with-extension segment
	// (the projection path), or empty.
	Path string

	// Query is the parsed query string. For merging, each key
	// contributes its first value.
	Query url.Values

	// RawQuery is the URL-encoded query string, passed untouched to
	// raw-http actions.
	RawQuery string

	// Body is the decoded JSON value of the request entity: an object,
	// a string (plain or base64 for binary payloads), or any other JSON
	// value. Nil when the entity is empty.
	Body any

	// RawBody is the request entity as a string, UTF-8 for text
	// payloads and base64 for binary ones. Raw-http actions receive
	// this form.
	RawBody string

	// BodyBinary records whether RawBody is base64-encoded.
	BodyBinary bool

	// Extension is the media extension selected by the URL.
	Extension *MediaExtension

	// Namespace is the owner namespace addressed by the URL.
	Namespace string

	// OnBehalfOf is the authenticated caller subject, or empty for
	// anonymous requests.
	OnBehalfOf string
}

// HasBody reports whether the request carried a non-empty entity.
func (c *Context) HasBody() bool {
	return c.Body != nil || c.RawBody != ""
}

// BodyObject returns the body as a JSON object when it decoded to one.
func (c *Context) BodyObject() (map[string]any, bool) {
	obj, ok := c.Body.(map[string]any)
	return obj, ok
}

// Metadata builds the reserved properties injected into the invocation
// payload. Raw-http actions additionally receive the raw query string and
// the body as a single opaque value.
func (c *Context) Metadata(d Directives, raw bool) map[string]any {
	meta := map[string]any{
		d.Method:    strings.ToLower(c.Method),
		d.Headers:   c.headerMap(),
		d.Path:      c.Path,
		d.Namespace: c.Namespace,
	}
	if raw {
		if d.Query != "" {
			meta[d.Query] = c.RawQuery
		}
		if d.Body != "" {
			meta[d.Body] = c.RawBody
		}
	}
	return meta
}

// headerMap flattens the request headers into a lowercased-name -> value
// map. Repeated headers are joined with a comma, preserving order.
func (c *Context) headerMap() map[string]any {
	m := make(map[string]any, len(c.Headers))
	for name, values := range c.Headers {
		m[strings.ToLower(name)] = strings.Join(values, ",")
	}
	return m
}
