package webaction

import (
	"strings"
	"testing"

	"github.com/actiongate/actiongate/internal/domain/activation"
)

func transcodeOK(t *testing.T, result string, extName, path string) *Response {
	t.Helper()
	ext, _ := Extension(extName)
	resp, err := Transcode([]byte(result), activation.StatusSuccess, ext, path, MainDirectives)
	if err != nil {
		t.Fatalf("Transcode(%s) error: %v", extName, err)
	}
	return resp
}

func transcodeReject(t *testing.T, result string, extName, path string) *Reject {
	t.Helper()
	ext, _ := Extension(extName)
	_, err := Transcode([]byte(result), activation.StatusSuccess, ext, path, MainDirectives)
	if err == nil {
		t.Fatalf("Transcode(%s) expected rejection", extName)
	}
	return AsReject(err)
}

func TestTranscode_JSON(t *testing.T) {
	t.Parallel()

	resp := transcodeOK(t, `{"a":1,"b":[true]}`, ".json", "")
	if resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if resp.ContentType != "application/json" {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
	if string(resp.Body) != `{"a":1,"b":[true]}` {
		t.Errorf("Body = %s", resp.Body)
	}

	// Arrays are valid for .json.
	resp = transcodeOK(t, `{"list":[1,2,3]}`, ".json", "/list")
	if string(resp.Body) != "[1,2,3]" {
		t.Errorf("projected array body = %s", resp.Body)
	}

	// Scalars are not.
	rej := transcodeReject(t, `{"n":42}`, ".json", "/n")
	if rej.Code != 400 {
		t.Errorf("Code = %d, want 400", rej.Code)
	}
}

func TestTranscode_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result string
		path   string
		want   string
	}{
		{"string literal", `{"text":"hello"}`, "", "hello"},
		{"number literal", `{"n":3.14}`, "/n", "3.14"},
		{"boolean literal", `{"b":false}`, "/b", "false"},
		{"null renders null", `{"x":null}`, "/x", "null"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := transcodeOK(t, tt.result, ".text", tt.path)
			if resp.ContentType != "text/plain" {
				t.Errorf("ContentType = %q", resp.ContentType)
			}
			if string(resp.Body) != tt.want {
				t.Errorf("Body = %q, want %q", resp.Body, tt.want)
			}
		})
	}

	t.Run("object pretty prints", func(t *testing.T) {
		t.Parallel()
		resp := transcodeOK(t, `{"o":{"k":"v"}}`, ".text", "/o")
		if !strings.Contains(string(resp.Body), `"k": "v"`) {
			t.Errorf("Body = %q, want pretty JSON", resp.Body)
		}
	})
}

func TestTranscode_HTMLAndSVG(t *testing.T) {
	t.Parallel()

	resp := transcodeOK(t, `{"html":"<h1>hi</h1>"}`, ".html", "")
	if resp.ContentType != "text/html" || string(resp.Body) != "<h1>hi</h1>" {
		t.Errorf("got (%q, %q)", resp.ContentType, resp.Body)
	}

	resp = transcodeOK(t, `{"svg":"<svg/>"}`, ".svg", "")
	if resp.ContentType != "image/svg+xml" || string(resp.Body) != "<svg/>" {
		t.Errorf("got (%q, %q)", resp.ContentType, resp.Body)
	}

	// Both require a string value.
	rej := transcodeReject(t, `{"html":{"nested":true}}`, ".html", "")
	if rej.Code != 400 {
		t.Errorf("Code = %d, want 400", rej.Code)
	}
}

func TestTranscode_HTTP(t *testing.T) {
	t.Parallel()

	t.Run("full response", func(t *testing.T) {
		t.Parallel()
		resp := transcodeOK(t, `{"statusCode":201,"headers":{"Location":"/new","X-Count":7},"body":"created"}`, ".http", "")
		if resp.Status != 201 {
			t.Errorf("Status = %d, want 201", resp.Status)
		}
		if resp.Header.Get("Location") != "/new" {
			t.Errorf("Location = %q", resp.Header.Get("Location"))
		}
		if resp.Header.Get("X-Count") != "7" {
			t.Errorf("X-Count = %q", resp.Header.Get("X-Count"))
		}
		if string(resp.Body) != "created" {
			t.Errorf("Body = %q", resp.Body)
		}
		// No explicit content type defaults to text/html.
		if resp.ContentType != "text/html" {
			t.Errorf("ContentType = %q", resp.ContentType)
		}
	})

	t.Run("deprecated code field", func(t *testing.T) {
		t.Parallel()
		resp := transcodeOK(t, `{"code":302,"headers":{"Location":"https://example.com"}}`, ".http", "")
		if resp.Status != 302 {
			t.Errorf("Status = %d, want 302", resp.Status)
		}
		if len(resp.Body) != 0 {
			t.Errorf("Body = %q, want empty", resp.Body)
		}
	})

	t.Run("statusCode wins over code", func(t *testing.T) {
		t.Parallel()
		resp := transcodeOK(t, `{"statusCode":200,"code":500}`, ".http", "")
		if resp.Status != 200 {
			t.Errorf("Status = %d, want 200", resp.Status)
		}
	})

	t.Run("empty object defaults to 200", func(t *testing.T) {
		t.Parallel()
		resp := transcodeOK(t, `{}`, ".http", "")
		if resp.Status != 200 {
			t.Errorf("Status = %d, want 200", resp.Status)
		}
	})

	t.Run("non-integer status rejects", func(t *testing.T) {
		t.Parallel()
		rej := transcodeReject(t, `{"statusCode":3.5}`, ".http", "")
		if rej.Code != 400 {
			t.Errorf("Code = %d, want 400", rej.Code)
		}
	})

	t.Run("out-of-range status rejects", func(t *testing.T) {
		t.Parallel()
		rej := transcodeReject(t, `{"statusCode":-1}`, ".http", "")
		if rej.Code != 400 {
			t.Errorf("Code = %d, want 400", rej.Code)
		}
	})

	t.Run("unknown content type rejects", func(t *testing.T) {
		t.Parallel()
		rej := transcodeReject(t, `{"headers":{"Content-Type":"xyz/bar"},"body":"x"}`, ".http", "")
		if rej.Code != 400 || rej.Message != MsgUnknownContentType {
			t.Errorf("got (%d, %q)", rej.Code, rej.Message)
		}
	})

	t.Run("binary body decodes base64", func(t *testing.T) {
		t.Parallel()
		// "hi" base64-encoded, with a binary content type.
		resp := transcodeOK(t, `{"headers":{"Content-Type":"image/png"},"body":"aGk="}`, ".http", "")
		if string(resp.Body) != "hi" {
			t.Errorf("Body = %q, want decoded bytes", resp.Body)
		}
		if resp.ContentType != "image/png" {
			t.Errorf("ContentType = %q", resp.ContentType)
		}
	})

	t.Run("invalid base64 for binary type rejects", func(t *testing.T) {
		t.Parallel()
		rej := transcodeReject(t, `{"headers":{"Content-Type":"image/png"},"body":"%%%"}`, ".http", "")
		if rej.Code != 400 {
			t.Errorf("Code = %d, want 400", rej.Code)
		}
	})

	t.Run("array header value rejects", func(t *testing.T) {
		t.Parallel()
		rej := transcodeReject(t, `{"headers":{"X-Bad":[1,2]}}`, ".http", "")
		if rej.Code != 400 {
			t.Errorf("Code = %d, want 400", rej.Code)
		}
	})

	t.Run("non-object result rejects", func(t *testing.T) {
		t.Parallel()
		rej := transcodeReject(t, `{"v":"scalar"}`, ".http", "/v")
		if rej.Code != 400 {
			t.Errorf("Code = %d, want 400", rej.Code)
		}
	})
}

func TestTranscode_ActivationStatus(t *testing.T) {
	t.Parallel()

	jsonExt, _ := Extension(".json")

	t.Run("application error projects error field", func(t *testing.T) {
		t.Parallel()
		result := []byte(`{"error":{"reason":"bad input"}}`)
		resp, err := Transcode(result, activation.StatusApplicationError, jsonExt, "/ignored", MainDirectives)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(resp.Body) != `{"reason":"bad input"}` {
			t.Errorf("Body = %s", resp.Body)
		}
	})

	t.Run("developer error rejects 400", func(t *testing.T) {
		t.Parallel()
		_, err := Transcode([]byte(`{}`), activation.StatusDeveloperError, jsonExt, "", MainDirectives)
		rej := AsReject(err)
		if rej.Code != 400 || rej.Message != MsgErrorProcessing {
			t.Errorf("got (%d, %q)", rej.Code, rej.Message)
		}
	})

	t.Run("system error rejects 400", func(t *testing.T) {
		t.Parallel()
		_, err := Transcode([]byte(`{}`), activation.StatusSystemError, jsonExt, "", MainDirectives)
		if AsReject(err).Code != 400 {
			t.Error("system error must reject with 400")
		}
	})
}
