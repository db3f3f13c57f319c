package router

import (
	"path"
	"strings"
)

// BypassPolicy decides which paths skip tenant resolution. Patterns are path
// prefixes ("/_next/", "/api/health") or extension globs ("*.png").
type BypassPolicy struct {
	prefixes   []string
	extensions []string
}

func NewBypassPolicy(patterns []string) *BypassPolicy {
	p := &BypassPolicy{}
	for _, pattern := range patterns {
		if ext, ok := strings.CutPrefix(pattern, "*"); ok {
			if strings.HasPrefix(ext, ".") {
				p.extensions = append(p.extensions, strings.ToLower(ext))
			}
			continue
		}
		if strings.HasPrefix(pattern, "/") {
			p.prefixes = append(p.prefixes, pattern)
		}
	}
	return p
}

// Match is a pure function of the request path.
func (p *BypassPolicy) Match(urlPath string) bool {
	for _, prefix := range p.prefixes {
		if hasPathPrefix(urlPath, prefix) {
			return true
		}
	}

	if ext := strings.ToLower(path.Ext(urlPath)); ext != "" {
		for _, e := range p.extensions {
			if ext == e {
				return true
			}
		}
	}
	return false
}

// hasPathPrefix matches whole segments: "/dashboard" matches "/dashboard" and
// "/dashboard/orders" but not "/dashboards". A prefix ending in "/" matches as is.
func hasPathPrefix(urlPath, prefix string) bool {
	if prefix == "" {
		return false
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(urlPath, prefix)
	}
	return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
}
