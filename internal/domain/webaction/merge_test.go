package webaction

import (
	"net/http"
	"net/url"
	"reflect"
	"testing"
)

func TestOffenders(t *testing.T) {
	t.Parallel()

	immutable := map[string]struct{}{"greeting": {}}

	tests := []struct {
		name  string
		query url.Values
		body  any
		want  []string
	}{
		{
			name:  "clean request",
			query: url.Values{"name": {"alice"}},
			body:  map[string]any{"age": float64(30)},
			want:  nil,
		},
		{
			name:  "reserved key in query",
			query: url.Values{"__ow_method": {"delete"}},
			want:  []string{"__ow_method"},
		},
		{
			name: "immutable parameter in body",
			body: map[string]any{"greeting": "hi"},
			want: []string{"greeting"},
		},
		{
			name:  "offenders from both sources sorted",
			query: url.Values{"__ow_path": {"x"}},
			body:  map[string]any{"greeting": "hi", "__ow_headers": map[string]any{}},
			want:  []string{"__ow_headers", "__ow_path", "greeting"},
		},
		{
			name:  "duplicate offender reported once",
			query: url.Values{"greeting": {"a"}},
			body:  map[string]any{"greeting": "b"},
			want:  []string{"greeting"},
		},
		{
			name: "non-object body contributes nothing",
			body: "just a string",
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := &Context{Query: tt.query, Body: tt.body}
			got := Offenders(ctx, immutable, MainDirectives)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Offenders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergePayload_Precedence(t *testing.T) {
	t.Parallel()

	pkgParams := map[string]any{"a": "pkg", "b": "pkg", "c": "pkg", "d": "pkg"}
	actParams := map[string]any{"b": "act", "c": "act", "d": "act"}
	ctx := &Context{
		Method: "POST",
		Query:  url.Values{"c": {"query", "second"}, "d": {"query"}},
		Body:   map[string]any{"d": "body"},
	}

	payload := MergePayload(pkgParams, actParams, ctx, MainDirectives, false)

	if payload["a"] != "pkg" {
		t.Errorf("a = %v, want pkg", payload["a"])
	}
	if payload["b"] != "act" {
		t.Errorf("b = %v, want act", payload["b"])
	}
	// Query contributes only the first value of each key.
	if payload["c"] != "query" {
		t.Errorf("c = %v, want query", payload["c"])
	}
	if payload["d"] != "body" {
		t.Errorf("d = %v, want body", payload["d"])
	}
}

func TestMergePayload_Metadata(t *testing.T) {
	t.Parallel()

	ctx := &Context{
		Method:    "GET",
		Headers:   http.Header{"Accept": {"application/json"}, "X-Custom": {"a", "b"}},
		Path:      "/deep/field",
		Namespace: "guest",
	}

	payload := MergePayload(nil, nil, ctx, MainDirectives, false)

	if payload["__ow_method"] != "get" {
		t.Errorf("__ow_method = %v, want get", payload["__ow_method"])
	}
	if payload["__ow_path"] != "/deep/field" {
		t.Errorf("__ow_path = %v", payload["__ow_path"])
	}
	if payload["__ow_user"] != "guest" {
		t.Errorf("__ow_user = %v", payload["__ow_user"])
	}

	headers, ok := payload["__ow_headers"].(map[string]any)
	if !ok {
		t.Fatalf("__ow_headers is %T, want map", payload["__ow_headers"])
	}
	if headers["accept"] != "application/json" {
		t.Errorf("accept header = %v", headers["accept"])
	}
	if headers["x-custom"] != "a,b" {
		t.Errorf("repeated header = %v, want a,b", headers["x-custom"])
	}

	// Non-raw invocations never receive the raw query/body keys.
	if _, ok := payload["__ow_query"]; ok {
		t.Error("__ow_query must not be set for non-raw actions")
	}
	if _, ok := payload["__ow_body"]; ok {
		t.Error("__ow_body must not be set for non-raw actions")
	}
}

func TestMergePayload_RawHTTP(t *testing.T) {
	t.Parallel()

	ctx := &Context{
		Method:   "POST",
		Query:    url.Values{"x": {"1"}},
		RawQuery: "x=1&y=2",
		Body:     map[string]any{"x": "override"},
		RawBody:  `{"x":"override"}`,
	}

	payload := MergePayload(map[string]any{"x": "pkg"}, nil, ctx, MainDirectives, true)

	// Raw mode bypasses the query and body merge layers.
	if payload["x"] != "pkg" {
		t.Errorf("x = %v, want pkg (raw mode must not merge request params)", payload["x"])
	}
	if payload["__ow_query"] != "x=1&y=2" {
		t.Errorf("__ow_query = %v", payload["__ow_query"])
	}
	if payload["__ow_body"] != `{"x":"override"}` {
		t.Errorf("__ow_body = %v", payload["__ow_body"])
	}
}
