package entity

import (
	"reflect"
	"testing"
)

func TestValidName(t *testing.T) {
	t.Parallel()

	valid := []string{
		"echo",
		"a",
		"my-action",
		"my.action",
		"user@example.com",
		"two words",
		"Mixed_Case-1.2",
	}
	for _, name := range valid {
		if !ValidName(name) {
			t.Errorf("ValidName(%q) = false, want true", name)
		}
	}

	invalid := []string{
		"",
		" leading",
		"trailing ",
		"slash/name",
		"new\nline",
		"-leading-dash",
		".leading-dot",
	}
	for _, name := range invalid {
		if ValidName(name) {
			t.Errorf("ValidName(%q) = true, want false", name)
		}
	}
}

func TestAnnotations(t *testing.T) {
	t.Parallel()

	t.Run("web export requires boolean true", func(t *testing.T) {
		t.Parallel()
		if !(Annotations{"web-export": true}).WebExported() {
			t.Error("true should export")
		}
		if (Annotations{"web-export": "true"}).WebExported() {
			t.Error("string value must not export")
		}
		if (Annotations{"web-export": 1}).WebExported() {
			t.Error("numeric value must not export")
		}
		if (Annotations{}).WebExported() {
			t.Error("absent annotation must not export")
		}
	})

	t.Run("require auth", func(t *testing.T) {
		t.Parallel()
		if _, need := (Annotations{}).RequireAuth(); need {
			t.Error("absent annotation must not require auth")
		}
		if _, need := (Annotations{"require-whisk-auth": false}).RequireAuth(); need {
			t.Error("false must not require auth")
		}
		v, need := (Annotations{"require-whisk-auth": true}).RequireAuth()
		if !need || v != true {
			t.Errorf("true: got (%v, %v)", v, need)
		}
		v, need = (Annotations{"require-whisk-auth": "s3cret"}).RequireAuth()
		if !need || v != "s3cret" {
			t.Errorf("string secret: got (%v, %v)", v, need)
		}
		v, need = (Annotations{"require-whisk-auth": float64(1234)}).RequireAuth()
		if !need || v != float64(1234) {
			t.Errorf("numeric secret: got (%v, %v)", v, need)
		}
	})
}

func TestFullyQualifiedName(t *testing.T) {
	t.Parallel()

	a := &Action{Namespace: "guest", Package: "demo", Name: "hello"}
	if got := a.FullyQualifiedName(); got != "guest/demo/hello" {
		t.Errorf("FullyQualifiedName() = %q", got)
	}

	a = &Action{Namespace: "guest", Name: "hello"}
	if got := a.FullyQualifiedName(); got != "guest/default/hello" {
		t.Errorf("default package: %q", got)
	}
}

func TestParseParameters(t *testing.T) {
	t.Parallel()

	declared := map[string]any{
		"plain":  "v",
		"bound":  map[string]any{"value": 42, "final": true},
		"loose":  map[string]any{"value": "x"},
		"object": map[string]any{"value": "y", "extra": true},
	}

	values, immutable := ParseParameters(declared)

	want := map[string]any{
		"plain":  "v",
		"bound":  42,
		"loose":  "x",
		"object": map[string]any{"value": "y", "extra": true},
	}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}

	if _, ok := immutable["bound"]; !ok {
		t.Error("final parameter should be immutable")
	}
	if len(immutable) != 1 {
		t.Errorf("immutable = %v, want only bound", immutable)
	}
}

func TestInheritParameters(t *testing.T) {
	t.Parallel()

	pkg := map[string]any{"a": 1, "b": 1}
	act := map[string]any{"b": 2, "c": 2}

	merged := InheritParameters(pkg, act)
	want := map[string]any{"a": 1, "b": 2, "c": 2}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("merged = %v, want %v", merged, want)
	}

	// Inputs are untouched.
	if pkg["b"] != 1 || act["b"] != 2 {
		t.Error("inputs were modified")
	}
}
