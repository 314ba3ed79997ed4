package webaction

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ProjectionPath resolves the field names to descend into the activation
// result: the explicit request path when the extension allows projection,
// else the extension's default projection, else nothing (the root).
func ProjectionPath(ext *MediaExtension, requestPath string) []string {
	if ext.ProjectionAllowed {
		if segs := splitProjection(requestPath); len(segs) > 0 {
			return segs
		}
	}
	return ext.DefaultProjection
}

// splitProjection splits a projection path on "/", dropping empty segments.
func splitProjection(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Project descends into a JSON result field by field. Descent is
// left-associative string descent: /a/b/c selects result["a"]["b"]["c"].
// Every intermediate value must be an object; a missing field or non-object
// intermediate rejects with 404.
func Project(result []byte, fields []string) (gjson.Result, *Reject) {
	cur := gjson.ParseBytes(result)
	for _, f := range fields {
		if !cur.IsObject() {
			return gjson.Result{}, NewReject(404, MsgPropertyNotFound)
		}
		cur = cur.Get(escapeField(f))
		if !cur.Exists() {
			return gjson.Result{}, NewReject(404, MsgPropertyNotFound)
		}
	}
	return cur, nil
}

// escapeField escapes gjson path metacharacters so a projection segment is
// always treated as a literal field name.
func escapeField(f string) string {
	var b strings.Builder
	for _, r := range f {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
