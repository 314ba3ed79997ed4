// Package web provides the HTTP front-end for web action invocations.
package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/actiongate/actiongate/internal/domain/entity"
	"github.com/actiongate/actiongate/internal/domain/webaction"
	"github.com/actiongate/actiongate/internal/service"
)

// secretHeader carries the per-action auth secret for actions annotated
// with a string or numeric require-whisk-auth value.
const secretHeader = "X-Require-Whisk-Auth"

// decodeRequest parses one web action request into an InvocationRequest:
// path segments, media extension, query, body, and credentials. Failures
// are *webaction.Reject.
func decodeRequest(w http.ResponseWriter, r *http.Request, route string, d webaction.Directives, entityLimit int64) (*service.InvocationRequest, error) {
	namespace, pkg, actionSeg, projection, err := splitPath(r.URL.Path, route)
	if err != nil {
		return nil, err
	}

	name, ext, rej := webaction.SplitActionSegment(actionSeg, d)
	if rej != nil {
		return nil, rej
	}
	if name == "" {
		return nil, webaction.RejectNotFound()
	}

	ctx := &webaction.Context{
		Method:    r.Method,
		Headers:   r.Header,
		Path:      projection,
		Query:     r.URL.Query(),
		RawQuery:  r.URL.RawQuery,
		Extension: ext,
	}

	if err := readBody(w, r, ctx, entityLimit); err != nil {
		return nil, err
	}

	req := &service.InvocationRequest{
		Namespace:    namespace,
		Package:      pkg,
		Action:       name,
		Ctx:          ctx,
		SecretHeader: r.Header.Get(secretHeader),
	}
	if user, pass, ok := r.BasicAuth(); ok {
		req.Credentials = &service.Credentials{UUID: user, Secret: pass}
	}
	return req, nil
}

// splitPath dissects /<route>/<namespace>/<package>/<action>[/<proj...>].
// The literal "default" package maps to the empty package name.
func splitPath(path, route string) (namespace, pkg, actionSeg, projection string, err error) {
	rest, ok := strings.CutPrefix(path, route)
	if !ok {
		return "", "", "", "", webaction.RejectNotFound()
	}

	parts := strings.SplitN(strings.TrimPrefix(rest, "/"), "/", 4)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", "", webaction.RejectNotFound()
	}

	namespace, pkg, actionSeg = parts[0], parts[1], parts[2]
	if len(parts) == 4 {
		projection = parts[3]
	}

	if pkg == entity.DefaultPackage {
		pkg = ""
	}
	return namespace, pkg, actionSeg, projection, nil
}

// readBody consumes the request entity into the context, bounded by the
// entity size limit. A body exactly at the limit is accepted; one byte
// over rejects with 413.
func readBody(w http.ResponseWriter, r *http.Request, ctx *webaction.Context, entityLimit int64) error {
	if r.Body == nil {
		return nil
	}

	limited := http.MaxBytesReader(w, r.Body, entityLimit)
	raw, err := io.ReadAll(limited)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return webaction.NewReject(413, webaction.MsgEntityTooLarge)
		}
		return webaction.NewReject(400, "Request entity could not be read.")
	}
	if len(raw) == 0 {
		return nil
	}

	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch mediaType {
	case "application/json":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return webaction.NewReject(400, "Request entity is not valid JSON.")
		}
		if _, isObject := v.(map[string]any); !isObject {
			return webaction.NewReject(400, "Request entity must be a JSON object.")
		}
		ctx.Body = v
		ctx.RawBody = string(raw)

	case "application/x-www-form-urlencoded":
		form, err := parseForm(string(raw))
		if err != nil {
			return webaction.NewReject(400, "Request entity is not a valid form.")
		}
		ctx.Body = form
		ctx.RawBody = string(raw)

	default:
		if webaction.IsBinaryContent(contentType, raw) {
			encoded := base64.StdEncoding.EncodeToString(raw)
			ctx.Body = encoded
			ctx.RawBody = encoded
			ctx.BodyBinary = true
		} else {
			ctx.Body = string(raw)
			ctx.RawBody = string(raw)
		}
	}
	return nil
}

// parseForm decodes a urlencoded form into a flat JSON-object-shaped map.
// Each key contributes its first value.
func parseForm(body string) (map[string]any, error) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, err
	}
	obj := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			obj[k] = vs[0]
		}
	}
	return obj, nil
}
