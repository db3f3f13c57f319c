package router

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the shared bucket for requests without a usable client address.
const UnknownClient = "unknown"

// ClientKey derives the rate-limit key from the first X-Forwarded-For entry,
// then X-Real-IP. Missing or unparseable values map to UnknownClient.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}

	return UnknownClient
}
