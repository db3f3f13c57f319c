package router

import (
	"net/http"
	"net/url"

	"github.com/HanTheDev/storefront-router/internal/security"
)

type Action int

const (
	// ActionNext passes the request through to the downstream handler untouched.
	ActionNext Action = iota
	// ActionRewrite forwards the request downstream under a different path.
	ActionRewrite
	ActionRedirect
	// ActionBlock answers immediately with Status and no downstream call.
	ActionBlock
)

func (a Action) String() string {
	switch a {
	case ActionRewrite:
		return "rewrite"
	case ActionRedirect:
		return "redirect"
	case ActionBlock:
		return "block"
	default:
		return "next"
	}
}

// Decision is the full outcome of routing one request. It is computed first
// and applied exactly once by finalize.
type Decision struct {
	Action   Action
	Status   int
	Location string
	// RewritePath is in escaped form.
	RewritePath string
	// Headers are set on the response, after the security headers.
	Headers security.Headers
	// Forward are set on the request handed downstream.
	Forward security.Headers
	// Outcome labels the decision in logs and metrics.
	Outcome string
}

func passThrough(outcome string) Decision {
	return Decision{Action: ActionNext, Outcome: outcome}
}

func redirect(status int, location, outcome string) Decision {
	return Decision{Action: ActionRedirect, Status: status, Location: location, Outcome: outcome}
}

func rewrite(p, outcome string, headers, forward security.Headers) Decision {
	return Decision{Action: ActionRewrite, RewritePath: p, Headers: headers, Forward: forward, Outcome: outcome}
}

// withQuery adds key=value to a possibly relative location.
func withQuery(location, key, value string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// finalize writes the decision. Security headers go on every exit path.
func (rt *Router) finalize(w http.ResponseWriter, r *http.Request, next http.Handler, requestID string, d Decision) {
	owned := rt.cfg.SecurityHeaders.With(security.Header{Key: requestIDHeader, Value: requestID})
	owned = owned.With(d.Headers...)
	owned.Apply(w.Header())

	switch d.Action {
	case ActionRedirect:
		http.Redirect(w, r, d.Location, d.Status)

	case ActionBlock:
		http.Error(w, http.StatusText(d.Status), d.Status)

	case ActionRewrite:
		target := r.Clone(r.Context())
		setEscapedPath(target.URL, d.RewritePath)
		target.RequestURI = target.URL.RequestURI()
		d.Forward.Apply(target.Header)
		next.ServeHTTP(&ownedHeaderWriter{ResponseWriter: w, owned: owned}, target)

	default:
		d.Forward.Apply(r.Header)
		next.ServeHTTP(&ownedHeaderWriter{ResponseWriter: w, owned: owned}, r)
	}
}

func setEscapedPath(u *url.URL, escaped string) {
	p, err := url.PathUnescape(escaped)
	if err != nil {
		u.Path, u.RawPath = escaped, ""
		return
	}
	u.Path = p
	u.RawPath = ""
	if p != escaped {
		u.RawPath = escaped
	}
}

// ownedHeaderWriter re-sets the router's headers when downstream commits the
// response, replacing any values it added for the same keys.
type ownedHeaderWriter struct {
	http.ResponseWriter
	owned       security.Headers
	wroteHeader bool
}

func (w *ownedHeaderWriter) WriteHeader(code int) {
	if !w.wroteHeader && code >= http.StatusOK {
		w.wroteHeader = true
		w.owned.Apply(w.ResponseWriter.Header())
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *ownedHeaderWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *ownedHeaderWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
