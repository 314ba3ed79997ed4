// Package entity contains the domain types for packages and actions.
package entity

import (
	"regexp"
)

// DefaultPackage is the URL literal addressing actions outside any package.
const DefaultPackage = "default"

// entityName matches valid namespace, package, and action names. A name is
// a word character, or word characters with interior spaces, dots, dashes,
// and at-signs, not ending in a space.
var entityName = regexp.MustCompile(`^(\w|\w[\w@ .-]*[\w@.-])$`)

// ValidName reports whether s is a well-formed entity name.
func ValidName(s string) bool {
	return entityName.MatchString(s)
}

// Annotations is the free-form annotation mapping carried by packages and
// actions. Readers below interpret the annotations the gateway consumes.
type Annotations map[string]any

const (
	annotationWebExport   = "web-export"
	annotationRawHTTP     = "raw-http"
	annotationRequireAuth = "require-whisk-auth"
)

// boolValue reads an annotation as a boolean. Only a JSON true counts;
// strings, numbers, and absent annotations are false.
func (a Annotations) boolValue(name string) bool {
	v, ok := a[name].(bool)
	return ok && v
}

// WebExported reports whether the action is exposed on the web API.
func (a Annotations) WebExported() bool {
	return a.boolValue(annotationWebExport)
}

// RawHTTP reports whether the action receives the unparsed query and body.
func (a Annotations) RawHTTP() bool {
	return a.boolValue(annotationRawHTTP)
}

// RequireAuth returns the require-whisk-auth annotation value. A JSON true
// demands platform authentication; a string or number demands a matching
// secret header. Absent or false means the action is open.
func (a Annotations) RequireAuth() (any, bool) {
	v, ok := a[annotationRequireAuth]
	if !ok {
		return nil, false
	}
	if b, isBool := v.(bool); isBool && !b {
		return nil, false
	}
	return v, true
}

// Package is a named parameter container in a namespace. Bindings (package
// references into another namespace) are stored but never servable.
type Package struct {
	// Namespace is the owner namespace.
	Namespace string
	// Name is the package name, unique within the namespace.
	Name string
	// IsBinding marks the package as a binding to another package.
	IsBinding bool
	// Publish marks the package as publicly visible.
	Publish bool
	// Parameters are the package-level default parameters.
	Parameters map[string]any
	// Annotations are the package annotations.
	Annotations Annotations
}

// Action is a named invocable inside a package, or directly in the
// namespace when the package is the default package.
type Action struct {
	// Namespace is the owner namespace.
	Namespace string
	// Package is the containing package name, or empty for the default
	// package.
	Package string
	// Name is the action name.
	Name string
	// Parameters are the action-level default parameters.
	Parameters map[string]any
	// Immutable names the parameters the caller may not override.
	Immutable map[string]struct{}
	// Annotations are the action annotations.
	Annotations Annotations
}

// FullyQualifiedName returns namespace/package/name with the default
// package spelled out.
func (a *Action) FullyQualifiedName() string {
	pkg := a.Package
	if pkg == "" {
		pkg = DefaultPackage
	}
	return a.Namespace + "/" + pkg + "/" + a.Name
}

// ParseParameters splits a declared parameter mapping into plain values and
// the set of immutable names. A parameter may be declared directly, or as a
// wrapper object {"value": ..., "final": true} marking it immutable.
func ParseParameters(declared map[string]any) (map[string]any, map[string]struct{}) {
	values := make(map[string]any, len(declared))
	immutable := make(map[string]struct{})
	for name, v := range declared {
		if wrapped, inner, final := unwrapParameter(v); wrapped {
			values[name] = inner
			if final {
				immutable[name] = struct{}{}
			}
			continue
		}
		values[name] = v
	}
	return values, immutable
}

// unwrapParameter detects the {"value": ..., "final": bool} wrapper form.
// Any other object shape is a plain value.
func unwrapParameter(v any) (wrapped bool, inner any, final bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return false, nil, false
	}
	inner, hasValue := obj["value"]
	if !hasValue {
		return false, nil, false
	}
	for k := range obj {
		if k != "value" && k != "final" {
			return false, nil, false
		}
	}
	final, _ = obj["final"].(bool)
	return true, inner, final
}

// InheritParameters merges package defaults under action defaults: the
// action wins on conflicts. The inputs are not modified.
func InheritParameters(pkg, act map[string]any) map[string]any {
	merged := make(map[string]any, len(pkg)+len(act))
	for k, v := range pkg {
		merged[k] = v
	}
	for k, v := range act {
		merged[k] = v
	}
	return merged
}
