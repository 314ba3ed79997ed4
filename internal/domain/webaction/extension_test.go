package webaction

import (
	"testing"
)

func TestSplitActionSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		segment  string
		wantName string
		wantExt  string
	}{
		{"explicit json", "export.json", "export", ".json"},
		{"explicit http", "echo.http", "echo", ".http"},
		{"explicit html", "page.html", "page", ".html"},
		{"explicit svg", "logo.svg", "logo", ".svg"},
		{"explicit text", "motd.text", "motd", ".text"},
		{"no extension defaults to http", "echo", "echo", ".http"},
		{"case insensitive match", "export.JSON", "export", ".json"},
		{"mixed case match", "page.Html", "page", ".html"},
		{"unknown suffix defaults to http", "data.xyz", "data.xyz", ".http"},
		{"dotted name keeps prefix", "v2.1.export.json", "v2.1.export", ".json"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			name, ext, rej := SplitActionSegment(tt.segment, MainDirectives)
			if rej != nil {
				t.Fatalf("SplitActionSegment(%q) rejected: %v", tt.segment, rej)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if ext.Extension != tt.wantExt {
				t.Errorf("extension = %q, want %q", ext.Extension, tt.wantExt)
			}
		})
	}
}

func TestSplitActionSegment_EnforceExtension(t *testing.T) {
	t.Parallel()

	// The enforcing variant rejects a segment without a recognized suffix.
	_, _, rej := SplitActionSegment("echo", ExperimentalDirectives)
	if rej == nil {
		t.Fatal("expected rejection for missing extension")
	}
	if rej.Code != 406 {
		t.Errorf("Code = %d, want 406", rej.Code)
	}
	if rej.Message != MsgContentUnsupported {
		t.Errorf("Message = %q, want %q", rej.Message, MsgContentUnsupported)
	}

	// An explicit extension still works.
	name, ext, rej := SplitActionSegment("echo.json", ExperimentalDirectives)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if name != "echo" || ext.Extension != ".json" {
		t.Errorf("got (%q, %q), want (echo, .json)", name, ext.Extension)
	}
}

func TestExtension_Lookup(t *testing.T) {
	t.Parallel()

	for _, suffix := range []string{".http", ".json", ".html", ".svg", ".text"} {
		e, ok := Extension(suffix)
		if !ok {
			t.Errorf("Extension(%q) not found", suffix)
			continue
		}
		if e.Extension != suffix {
			t.Errorf("Extension(%q).Extension = %q", suffix, e.Extension)
		}
	}

	if _, ok := Extension(".xml"); ok {
		t.Error("Extension(.xml) should not exist")
	}
}

func TestReservedProperties(t *testing.T) {
	t.Parallel()

	main := MainDirectives.ReservedProperties()
	for _, k := range []string{"__ow_method", "__ow_headers", "__ow_path", "__ow_user", "__ow_query", "__ow_body"} {
		if _, ok := main[k]; !ok {
			t.Errorf("main variant missing reserved property %q", k)
		}
	}

	exp := ExperimentalDirectives.ReservedProperties()
	if _, ok := exp["__ow_meta_verb"]; !ok {
		t.Error("experimental variant missing __ow_meta_verb")
	}
	// The experimental variant has no raw-http keys.
	if _, ok := exp[""]; ok {
		t.Error("empty key must not be reserved")
	}
	if len(exp) != 4 {
		t.Errorf("experimental reserved set size = %d, want 4", len(exp))
	}
}
