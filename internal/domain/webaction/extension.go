package webaction

import (
	"strings"
)

// MediaExtension describes one projection/render mode selected by the URL
// extension. The table below is process-wide and read-only.
type MediaExtension struct {
	// Extension is the URL suffix, including the leading dot, lowercase.
	Extension string

	// DefaultProjection is applied when the request has no explicit
	// projection path. Nil projects the result root.
	DefaultProjection []string

	// ProjectionAllowed permits an explicit projection path on the URL.
	ProjectionAllowed bool

	// Transcode renders the projected result into an HTTP response.
	Transcode Transcoder
}

// extensions is the registry of recognized media extensions. Tagged
// variants with function values, keyed by the lowercase suffix.
var extensions = map[string]*MediaExtension{
	".http": {Extension: ".http", ProjectionAllowed: true, Transcode: resultAsHTTP},
	".json": {Extension: ".json", ProjectionAllowed: true, Transcode: resultAsJSON},
	".html": {Extension: ".html", DefaultProjection: []string{"html"}, ProjectionAllowed: true, Transcode: resultAsHTML},
	".svg":  {Extension: ".svg", DefaultProjection: []string{"svg"}, ProjectionAllowed: true, Transcode: resultAsSVG},
	".text": {Extension: ".text", DefaultProjection: []string{"text"}, ProjectionAllowed: true, Transcode: resultAsText},
}

// defaultExtension is assumed when the URL names no extension and the
// variant does not enforce one.
const defaultExtension = ".http"

// Extension looks up a media extension by its lowercase suffix.
func Extension(ext string) (*MediaExtension, bool) {
	e, ok := extensions[ext]
	return e, ok
}

// SplitActionSegment splits an action URL segment into the action name and
// its media extension using longest-suffix matching. The match is
// case-insensitive; the table lookup is lowercase.
//
// Without a matching suffix the default extension applies, unless the
// variant enforces explicit extensions, in which case the request is
// rejected with 406.
func SplitActionSegment(segment string, d Directives) (name string, ext *MediaExtension, err *Reject) {
	lower := strings.ToLower(segment)

	var matched *MediaExtension
	for suffix, e := range extensions {
		if !strings.HasSuffix(lower, suffix) {
			continue
		}
		if matched == nil || len(suffix) > len(matched.Extension) {
			matched = e
		}
	}

	if matched != nil {
		return segment[:len(segment)-len(matched.Extension)], matched, nil
	}
	if d.EnforceExtension {
		return "", nil, NewReject(406, MsgContentUnsupported)
	}
	return segment, extensions[defaultExtension], nil
}
