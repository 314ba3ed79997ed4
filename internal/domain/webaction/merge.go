package webaction

import (
	"sort"
)

// Offenders computes the caller-supplied parameter names that collide with
// reserved properties or the action's immutable parameters. The check runs
// before invocation; a non-empty result must reject the request with 400
// and the action is never invoked.
//
// Raw-http actions skip this check: their query and body travel as single
// opaque values under the reserved keys.
func Offenders(ctx *Context, immutable map[string]struct{}, d Directives) []string {
	reserved := d.ReservedProperties()

	seen := make(map[string]struct{})
	collect := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		if _, ok := reserved[name]; ok {
			seen[name] = struct{}{}
			return
		}
		if _, ok := immutable[name]; ok {
			seen[name] = struct{}{}
		}
	}

	for name := range ctx.Query {
		collect(name)
	}
	if obj, ok := ctx.BodyObject(); ok {
		for name := range obj {
			collect(name)
		}
	}

	if len(seen) == 0 {
		return nil
	}
	offenders := make([]string, 0, len(seen))
	for name := range seen {
		offenders = append(offenders, name)
	}
	sort.Strings(offenders)
	return offenders
}

// MergePayload builds the invocation payload. Precedence, lowest to
// highest: package parameters, action parameters, query, body, injected
// metadata. For raw-http actions the query and body layers are bypassed;
// they travel inside the metadata envelope instead.
//
// Reserved-key collisions with action-defined parameters are not enforced
// here; injection silently overwrites.
func MergePayload(pkgParams, actParams map[string]any, ctx *Context, d Directives, raw bool) map[string]any {
	payload := make(map[string]any, len(pkgParams)+len(actParams)+len(ctx.Query)+8)

	for k, v := range pkgParams {
		payload[k] = v
	}
	for k, v := range actParams {
		payload[k] = v
	}

	if !raw {
		for k, vs := range ctx.Query {
			if len(vs) > 0 {
				payload[k] = vs[0]
			}
		}
		if obj, ok := ctx.BodyObject(); ok {
			for k, v := range obj {
				payload[k] = v
			}
		}
	}

	for k, v := range ctx.Metadata(d, raw) {
		payload[k] = v
	}
	return payload
}
