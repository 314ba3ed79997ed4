package webaction

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// mediaTypes is the registry of content types the gateway knows how to
// synthesize responses for. The value records whether the type carries a
// binary payload (web actions return binary bodies base64-encoded).
var mediaTypes = map[string]bool{
	"text/html":                         false,
	"text/plain":                        false,
	"text/css":                          false,
	"text/csv":                          false,
	"text/xml":                          false,
	"text/javascript":                   false,
	"text/event-stream":                 false,
	"application/json":                  false,
	"application/javascript":            false,
	"application/xml":                   false,
	"application/xhtml+xml":             false,
	"application/atom+xml":              false,
	"application/rss+xml":               false,
	"application/x-www-form-urlencoded": false,
	"image/svg+xml":                     false,
	"application/octet-stream":          true,
	"application/pdf":                   true,
	"application/zip":                   true,
	"application/gzip":                  true,
	"application/wasm":                  true,
	"image/png":                         true,
	"image/jpeg":                        true,
	"image/gif":                         true,
	"image/webp":                        true,
	"image/bmp":                         true,
	"image/x-icon":                      true,
	"audio/mpeg":                        true,
	"audio/ogg":                         true,
	"audio/wav":                         true,
	"video/mp4":                         true,
	"video/mpeg":                        true,
	"video/webm":                        true,
	"font/woff":                         true,
	"font/woff2":                        true,
	"font/ttf":                          true,
	"font/otf":                          true,
}

// LookupMediaType parses a content-type header value and reports whether
// the media type is known and whether it is binary. Parameters (charset
// etc.) are ignored for the lookup.
func LookupMediaType(contentType string) (binary bool, ok bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false, false
	}
	mt = strings.ToLower(mt)
	if binary, ok = mediaTypes[mt]; ok {
		return binary, true
	}
	// Any text/* subtype not listed above is still a known text type.
	if strings.HasPrefix(mt, "text/") {
		return false, true
	}
	return false, false
}

// IsBinaryContent reports whether a request body should be treated as
// binary. The declared content type wins when the registry knows it;
// otherwise the payload bytes are sniffed.
func IsBinaryContent(contentType string, body []byte) bool {
	if binary, ok := LookupMediaType(contentType); ok {
		return binary
	}
	if len(body) == 0 {
		return false
	}
	detected := mimetype.Detect(body)
	for mt := detected; mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return false
		}
	}
	return true
}
