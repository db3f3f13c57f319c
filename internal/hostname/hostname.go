// Package hostname classifies inbound Host headers against the platform apex domain.
// Everything here is pure: no I/O and no package state.
package hostname

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

type Kind int

const (
	KindUnrecognized Kind = iota
	KindApex
	KindWWW
	KindSubdomain
	KindCustomDomain
)

func (k Kind) String() string {
	switch k {
	case KindApex:
		return "apex"
	case KindWWW:
		return "www"
	case KindSubdomain:
		return "subdomain"
	case KindCustomDomain:
		return "custom_domain"
	default:
		return "unrecognized"
	}
}

// TenantScoped reports whether the kind carries a tenant identifier.
func (k Kind) TenantScoped() bool {
	return k == KindSubdomain || k == KindCustomDomain
}

// ParseKind is the inverse of String for the tenant-scoped kinds.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "subdomain":
		return KindSubdomain, true
	case "custom_domain":
		return KindCustomDomain, true
	}
	return KindUnrecognized, false
}

type Result struct {
	Kind Kind
	// Identifier is the subdomain label or the full custom domain; empty otherwise.
	Identifier string
}

type Options struct {
	Apex string
	// CustomDomains enables custom-domain classification. It is off unless
	// ENABLE_CUSTOM_DOMAINS is set; while off, hosts outside the apex are
	// unrecognized and custom-domain tenants never resolve.
	CustomDomains bool
}

var (
	labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	tldPattern   = regexp.MustCompile(`^[a-z]{2,63}$`)
)

// Classify applies the classification rules in order; the first match wins.
func Classify(host string, opts Options) Result {
	h := Normalize(host)
	apex := strings.ToLower(strings.TrimSuffix(opts.Apex, "."))
	if h == "" || apex == "" {
		return Result{Kind: KindUnrecognized}
	}

	if h == "www."+apex {
		return Result{Kind: KindWWW}
	}
	if h == apex {
		return Result{Kind: KindApex}
	}

	if label, ok := strings.CutSuffix(h, "."+apex); ok {
		if ValidLabel(label) {
			return Result{Kind: KindSubdomain, Identifier: label}
		}
		return Result{Kind: KindUnrecognized}
	}

	if opts.CustomDomains && validDomain(h) {
		return Result{Kind: KindCustomDomain, Identifier: h}
	}

	return Result{Kind: KindUnrecognized}
}

// Normalize strips any port suffix and trailing dot and lower-cases the host.
func Normalize(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// ValidLabel reports whether s is a single non-empty DNS-safe label.
func ValidLabel(s string) bool {
	return labelPattern.MatchString(s)
}

func validDomain(h string) bool {
	labels := strings.Split(h, ".")
	if len(labels) < 2 || len(h) > 253 {
		return false
	}
	for _, l := range labels {
		if !ValidLabel(l) {
			return false
		}
	}
	return tldPattern.MatchString(labels[len(labels)-1])
}

// ApexRedirectURL returns the www-to-apex redirect target for u, keeping path,
// query and any port from the original host.
func ApexRedirectURL(host string, u *url.URL, scheme, apex string) string {
	target := &url.URL{
		Scheme:   scheme,
		Host:     apex,
		Path:     u.Path,
		RawPath:  u.RawPath,
		RawQuery: u.RawQuery,
	}
	if _, port, err := net.SplitHostPort(host); err == nil && port != "" {
		target.Host = net.JoinHostPort(apex, port)
	}
	if target.Path == "" {
		target.Path = "/"
	}
	return target.String()
}
