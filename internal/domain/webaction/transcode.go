package webaction

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/actiongate/actiongate/internal/domain/activation"
)

// Response is the synthesized HTTP response for a web action request.
type Response struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

// Transcoder renders a projected activation result into a Response.
// Failures return a *Reject (always 400 at this stage).
type Transcoder func(v gjson.Result, d Directives) (*Response, error)

// resultAsJSON renders .json: the value must be an object or array and is
// emitted verbatim as application/json.
func resultAsJSON(v gjson.Result, _ Directives) (*Response, error) {
	if !v.IsObject() && !v.IsArray() {
		return nil, NewReject(400, "Response is not valid for the json extension; an object or array is required.")
	}
	return &Response{
		Status:      http.StatusOK,
		ContentType: "application/json",
		Body:        []byte(v.Raw),
	}, nil
}

// resultAsText renders .text: scalars render literally (null renders the
// string "null"), objects and arrays render as pretty-printed JSON. The
// text transcoder is total and never fails.
func resultAsText(v gjson.Result, _ Directives) (*Response, error) {
	var body string
	switch v.Type {
	case gjson.String:
		body = v.Str
	case gjson.Number, gjson.True, gjson.False:
		body = v.Raw
	case gjson.Null:
		body = "null"
	default:
		pretty, err := json.MarshalIndent(v.Value(), "", "  ")
		if err != nil {
			return nil, NewReject(400, MsgErrorProcessing)
		}
		body = string(pretty)
	}
	return &Response{
		Status:      http.StatusOK,
		ContentType: "text/plain",
		Body:        []byte(body),
	}, nil
}

// resultAsHTML renders .html: the value must be a string.
func resultAsHTML(v gjson.Result, _ Directives) (*Response, error) {
	if v.Type != gjson.String {
		return nil, NewReject(400, "Response is not valid for the html extension; a string is required.")
	}
	return &Response{
		Status:      http.StatusOK,
		ContentType: "text/html",
		Body:        []byte(v.Str),
	}, nil
}

// resultAsSVG renders .svg: the value must be a string.
func resultAsSVG(v gjson.Result, _ Directives) (*Response, error) {
	if v.Type != gjson.String {
		return nil, NewReject(400, "Response is not valid for the svg extension; a string is required.")
	}
	return &Response{
		Status:      http.StatusOK,
		ContentType: "image/svg+xml",
		Body:        []byte(v.Str),
	}, nil
}

// resultAsHTTP renders .http: the value must be an object with optional
// status, headers, and body fields. The user-supplied status and body pass
// through directly; the content type must be known to the media registry.
func resultAsHTTP(v gjson.Result, d Directives) (*Response, error) {
	if !v.IsObject() {
		return nil, NewReject(400, "Response is not valid for the http extension; an object is required.")
	}

	statusField := v.Get(d.StatusCode)
	if !statusField.Exists() && d.StatusCode != legacyStatusField {
		// Older actions set "code" instead of "statusCode"; still honored.
		statusField = v.Get(legacyStatusField)
	}
	status, err := httpStatus(statusField)
	if err != nil {
		return nil, err
	}

	header, err := httpHeaders(v.Get("headers"))
	if err != nil {
		return nil, err
	}

	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/html"
	}
	binary, known := LookupMediaType(contentType)
	if !known {
		return nil, NewReject(400, MsgUnknownContentType)
	}
	header.Del("Content-Type")

	var body []byte
	if bodyField := v.Get("body"); bodyField.Exists() {
		if bodyField.Type != gjson.String {
			return nil, NewReject(400, "Response body is not valid for the http extension; a string is required.")
		}
		if binary {
			decoded, decErr := base64.StdEncoding.DecodeString(bodyField.Str)
			if decErr != nil {
				return nil, NewReject(400, "Response body is not valid base64 for a binary content-type.")
			}
			body = decoded
		} else {
			body = []byte(bodyField.Str)
		}
	}

	return &Response{
		Status:      status,
		ContentType: contentType,
		Header:      header,
		Body:        body,
	}, nil
}

// legacyStatusField is the deprecated spelling of the status-code field.
const legacyStatusField = "code"

// httpStatus parses the status-code field of an .http result. Absent
// defaults to 200 OK. Non-integer or out-of-range codes reject with 400.
func httpStatus(field gjson.Result) (int, error) {
	if !field.Exists() {
		return http.StatusOK, nil
	}
	if field.Type != gjson.Number || field.Num != math.Trunc(field.Num) {
		return 0, NewReject(400, "Response status code is not an integer.")
	}
	code := int(field.Num)
	if code < 100 || code > 599 {
		return 0, NewReject(400, fmt.Sprintf("Response status code %d is not a valid HTTP status.", code))
	}
	return code, nil
}

// httpHeaders parses the headers field of an .http result into raw header
// pairs. Values must be strings, booleans, or numbers.
func httpHeaders(field gjson.Result) (http.Header, error) {
	header := make(http.Header)
	if !field.Exists() {
		return header, nil
	}
	if !field.IsObject() {
		return nil, NewReject(400, "Response headers are not valid; an object is required.")
	}

	var bad bool
	field.ForEach(func(name, value gjson.Result) bool {
		switch value.Type {
		case gjson.String:
			header.Add(name.Str, value.Str)
		case gjson.Number, gjson.True, gjson.False:
			header.Add(name.Str, value.Raw)
		default:
			bad = true
			return false
		}
		return true
	})
	if bad {
		return nil, NewReject(400, "Response header values must be strings, booleans, or numbers.")
	}
	return header, nil
}

// Transcode projects an activation result and renders it with the request
// extension. status is the activation response status: application errors
// fold onto the standard error field; developer and system errors reject
// with 400 before any rendering.
func Transcode(result []byte, status activation.Status, ext *MediaExtension, projectionPath string, d Directives) (*Response, error) {
	var fields []string
	switch status {
	case activation.StatusSuccess:
		fields = ProjectionPath(ext, projectionPath)
	case activation.StatusApplicationError:
		// The requested projection is ignored; the error field is
		// projected instead and rendered by the same transcoder.
		fields = []string{activation.ErrorField}
	default:
		return nil, NewReject(400, MsgErrorProcessing)
	}

	v, rej := Project(result, fields)
	if rej != nil {
		return nil, rej
	}
	return ext.Transcode(v, d)
}
