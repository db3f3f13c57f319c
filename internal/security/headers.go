package security

import "net/http"

// Header is a single response header entry.
type Header struct {
	Key   string
	Value string
}

// Headers is an ordered header list applied in one pass.
type Headers []Header

func (hs Headers) Apply(h http.Header) {
	for _, e := range hs {
		h.Set(e.Key, e.Value)
	}
}

// With returns a new list with extra appended; hs is not modified.
func (hs Headers) With(extra ...Header) Headers {
	out := make(Headers, 0, len(hs)+len(extra))
	out = append(out, hs...)
	return append(out, extra...)
}

// DefaultHeaders is the static security header table sent on every response.
func DefaultHeaders() Headers {
	return Headers{
		{"X-DNS-Prefetch-Control", "on"},
		{"Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload"},
		{"X-XSS-Protection", "1; mode=block"},
		{"X-Frame-Options", "SAMEORIGIN"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	}
}
