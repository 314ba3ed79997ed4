package webaction

// Directives defines the reserved payload keys a web API variant injects
// into the invocation payload. The gateway always runs the main variant;
// the experimental table is kept because the reserved-key contract covers
// both prefixes and clients may not use either.
type Directives struct {
	// ReservedPrefix is the prefix shared by every reserved property.
	ReservedPrefix string

	// Method carries the lowercased HTTP verb.
	Method string
	// Headers carries the lowercased-name -> value header map.
	Headers string
	// Path carries the projection path string.
	Path string
	// Namespace carries the action-owner namespace.
	Namespace string
	// Query carries the raw query string (raw-http actions only; empty
	// when the variant does not support raw-http).
	Query string
	// Body carries the raw request body (raw-http actions only).
	Body string

	// StatusCode is the activation-result field holding the HTTP status
	// for the .http extension.
	StatusCode string

	// EnforceExtension requires an explicit media extension on the URL.
	EnforceExtension bool
}

// MainDirectives is the directive set for the primary web API.
var MainDirectives = Directives{
	ReservedPrefix:   "__ow_",
	Method:           "__ow_method",
	Headers:          "__ow_headers",
	Path:             "__ow_path",
	Namespace:        "__ow_user",
	Query:            "__ow_query",
	Body:             "__ow_body",
	StatusCode:       "statusCode",
	EnforceExtension: false,
}

// ExperimentalDirectives is the directive set of the older meta-package
// variant. Its API surface is not mounted; the table exists so the
// reserved-key sets of both variants stay enumerable and testable.
var ExperimentalDirectives = Directives{
	ReservedPrefix:   "__ow_meta_",
	Method:           "__ow_meta_verb",
	Headers:          "__ow_meta_headers",
	Path:             "__ow_meta_path",
	Namespace:        "__ow_meta_namespace",
	StatusCode:       "code",
	EnforceExtension: true,
}

// ReservedProperties returns the set of reserved payload keys for this
// variant. Clients may not supply any of these.
func (d Directives) ReservedProperties() map[string]struct{} {
	set := make(map[string]struct{}, 6)
	for _, k := range []string{d.Method, d.Headers, d.Path, d.Namespace, d.Query, d.Body} {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

// IsReserved reports whether name is a reserved property of this variant.
func (d Directives) IsReserved(name string) bool {
	_, ok := d.ReservedProperties()[name]
	return ok
}
