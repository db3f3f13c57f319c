// Package router resolves the tenant behind an inbound request and decides
// whether to redirect, block, rewrite it to a tenant-scoped route or pass it
// through.
//
// The pipeline per request is: rate limit, www normalisation, hostname
// classification, bypass check, tenant lookup, status check, dashboard auth
// and tenant ownership, then rewrite. Collaborator failures fail open.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HanTheDev/storefront-router/internal/auth"
	"github.com/HanTheDev/storefront-router/internal/hostname"
	"github.com/HanTheDev/storefront-router/internal/metrics"
	"github.com/HanTheDev/storefront-router/internal/models"
	"github.com/HanTheDev/storefront-router/internal/security"
	"github.com/google/uuid"
)

const (
	HeaderTenantID         = "X-Tenant-Id"
	HeaderTenantSubdomain  = "X-Tenant-Subdomain"
	HeaderTenantSettings   = "X-Tenant-Settings"
	HeaderTenantIdentifier = "X-Tenant-Identifier"

	requestIDHeader = "X-Request-ID"
	tenantCacheCtl  = "private, no-store, max-age=0"
	tenantPrefix    = "/tenant/"
)

// TenantLookup returns models.ErrTenantNotFound when no tenant matches.
type TenantLookup interface {
	LookupTenant(ctx context.Context, identifier string, kind hostname.Kind) (*models.Tenant, error)
}

// TokenVerifier returns auth.ErrNoToken or auth.ErrInvalidToken for
// unauthenticated requests; any other error is a verifier failure.
type TokenVerifier interface {
	Verify(r *http.Request, secret string) (*auth.Claims, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, clientKey, policy string) (bool, error)
}

type Pages struct {
	SignIn       string
	Unauthorized string
	ConfigError  string
	NotFound     string
	Suspended    string
}

type Config struct {
	ApexDomain      string
	CustomDomains   bool
	BypassPrefixes  []string
	ProtectedPrefix string
	RedirectScheme  string
	// SigningSecret may be empty; protected paths then redirect to Pages.ConfigError.
	SigningSecret   string
	RateLimitPolicy string
	// RetryAfter is advertised on 429 responses when positive.
	RetryAfter      time.Duration
	Pages           Pages
	SecurityHeaders security.Headers
}

type Deps struct {
	Lookup   TenantLookup
	Verifier TokenVerifier
	Limiter  RateLimiter
	Logger   *slog.Logger
	// Audit receives security events. Defaults to Logger tagged component=security-audit.
	Audit   *slog.Logger
	Metrics *metrics.Metrics
}

type Router struct {
	cfg      Config
	hostOpts hostname.Options
	bypass   *BypassPolicy
	lookup   TenantLookup
	verifier TokenVerifier
	limiter  RateLimiter
	logger   *slog.Logger
	audit    *slog.Logger
	metrics  *metrics.Metrics
}

func New(cfg Config, deps Deps) (*Router, error) {
	if cfg.ApexDomain == "" {
		return nil, errors.New("router: apex domain is required")
	}
	if deps.Lookup == nil || deps.Verifier == nil || deps.Limiter == nil {
		return nil, errors.New("router: lookup, verifier and limiter are required")
	}

	applyDefaults(&cfg)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	audit := deps.Audit
	if audit == nil {
		audit = logger.With("component", "security-audit")
	}

	return &Router{
		cfg:      cfg,
		hostOpts: hostname.Options{Apex: strings.ToLower(cfg.ApexDomain), CustomDomains: cfg.CustomDomains},
		bypass:   NewBypassPolicy(cfg.BypassPrefixes),
		lookup:   deps.Lookup,
		verifier: deps.Verifier,
		limiter:  deps.Limiter,
		logger:   logger,
		audit:    audit,
		metrics:  deps.Metrics,
	}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ProtectedPrefix == "" {
		cfg.ProtectedPrefix = "/dashboard"
	}
	if cfg.RedirectScheme == "" {
		cfg.RedirectScheme = "https"
	}
	if cfg.RateLimitPolicy == "" {
		cfg.RateLimitPolicy = "public"
	}
	if cfg.SecurityHeaders == nil {
		cfg.SecurityHeaders = security.DefaultHeaders()
	}

	pages := &cfg.Pages
	for _, p := range []struct {
		field *string
		def   string
	}{
		{&pages.SignIn, "/sign-in"},
		{&pages.Unauthorized, "/unauthorized"},
		{&pages.ConfigError, "/error?code=configuration"},
		{&pages.NotFound, "/tenant-not-found"},
		{&pages.Suspended, "/tenant-suspended"},
	} {
		if *p.field == "" {
			*p.field = p.def
		}
	}
}

// Middleware wraps the downstream handler that renders pages. Rewritten
// requests reach next with the tenant-scoped path.
func (rt *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		stripTenantHeaders(r.Header)

		req := &routing{
			rt:        rt,
			r:         r,
			requestID: requestID,
			clientKey: ClientKey(r),
			log:       rt.logger.With("request_id", requestID, "host", r.Host, "path", r.URL.Path),
		}

		d, err := req.safeDecide()
		if err != nil {
			stage := "unknown"
			var ce *collaboratorError
			if errors.As(err, &ce) {
				stage = ce.stage
			}
			req.log.Error("routing failed, passing request through", "stage", stage, "error", err)
			rt.metrics.FailOpen(stage)
			d = passThrough("fail_open")
		}

		rt.metrics.Decision(d.Outcome)
		rt.finalize(w, r, next, requestID, d)
	})
}

// stripTenantHeaders removes client-supplied tenant context so downstream only
// ever sees headers set by the router.
func stripTenantHeaders(h http.Header) {
	for _, k := range []string{HeaderTenantID, HeaderTenantSubdomain, HeaderTenantSettings, HeaderTenantIdentifier} {
		h.Del(k)
	}
}

type collaboratorError struct {
	stage string
	err   error
}

func (e *collaboratorError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *collaboratorError) Unwrap() error { return e.err }

// routing carries the state of a single request through the pipeline.
type routing struct {
	rt        *Router
	r         *http.Request
	requestID string
	clientKey string
	log       *slog.Logger
}

func (req *routing) safeDecide() (d Decision, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &collaboratorError{stage: "panic", err: fmt.Errorf("%v", rec)}
		}
	}()
	return req.decide()
}

func (req *routing) decide() (Decision, error) {
	rt, r := req.rt, req.r
	ctx := r.Context()

	allowed, err := rt.limiter.Allow(ctx, req.clientKey, rt.cfg.RateLimitPolicy)
	if err != nil {
		return Decision{}, &collaboratorError{stage: "limiter", err: err}
	}
	if !allowed {
		req.log.Info("rate limited", "client_key", req.clientKey, "policy", rt.cfg.RateLimitPolicy)
		d := Decision{Action: ActionBlock, Status: http.StatusTooManyRequests, Outcome: "rate_limited"}
		if secs := int(rt.cfg.RetryAfter.Seconds()); secs > 0 {
			d.Headers = security.Headers{{Key: "Retry-After", Value: strconv.Itoa(secs)}}
		}
		return d, nil
	}

	class := hostname.Classify(r.Host, rt.hostOpts)

	switch class.Kind {
	case hostname.KindWWW:
		target := hostname.ApexRedirectURL(r.Host, r.URL, rt.cfg.RedirectScheme, rt.hostOpts.Apex)
		return redirect(http.StatusMovedPermanently, target, "www_redirect"), nil

	case hostname.KindSubdomain, hostname.KindCustomDomain:
		return req.decideTenant(class)
	}

	// Apex and unrecognized hosts serve the platform itself.
	if rt.protected(r.URL.Path) {
		if d, ok, err := req.gate(nil); !ok || err != nil {
			return d, err
		}
	}
	return passThrough("platform"), nil
}

func (req *routing) decideTenant(class hostname.Result) (Decision, error) {
	rt, r := req.rt, req.r

	if rt.bypass.Match(r.URL.Path) {
		hs := security.Headers{{Key: HeaderTenantIdentifier, Value: class.Identifier}}
		return Decision{Action: ActionNext, Headers: hs, Forward: hs, Outcome: "bypass"}, nil
	}

	start := time.Now()
	tenant, err := rt.lookup.LookupTenant(r.Context(), class.Identifier, class.Kind)
	switch {
	case errors.Is(err, models.ErrTenantNotFound):
		rt.metrics.ObserveLookup("not_found", time.Since(start))
		req.log.Info("tenant not found", "kind", class.Kind.String(), "identifier", class.Identifier)
		return rewrite(rt.cfg.Pages.NotFound, "tenant_not_found", noStore(), nil), nil
	case err != nil:
		rt.metrics.ObserveLookup("error", time.Since(start))
		return Decision{}, &collaboratorError{stage: "lookup", err: err}
	}
	rt.metrics.ObserveLookup("found", time.Since(start))

	if !tenant.Active() {
		req.log.Info("tenant not active", "tenant_id", tenant.ID, "status", tenant.Status)
		return rewrite(rt.cfg.Pages.Suspended, "tenant_suspended", noStore(), nil), nil
	}

	if rt.protected(r.URL.Path) {
		if d, ok, err := req.gate(tenant); !ok || err != nil {
			return d, err
		}
	}

	hs := tenantHeaders(tenant)
	target := tenantPrefix + url.PathEscape(class.Identifier) + r.URL.EscapedPath()
	return rewrite(target, "rewrite", hs.With(noStore()...), hs), nil
}

// gate enforces the dashboard contract: signing secret configured, valid
// session token, and, when a tenant was resolved, a matching tenant claim.
// ok is false when d must be returned instead of continuing.
func (req *routing) gate(tenant *models.Tenant) (d Decision, ok bool, err error) {
	rt, r := req.rt, req.r

	if rt.cfg.SigningSecret == "" {
		req.log.Error("session signing secret is not configured")
		return redirect(http.StatusTemporaryRedirect, rt.cfg.Pages.ConfigError, "config_error"), false, nil
	}

	claims, err := rt.verifier.Verify(r, rt.cfg.SigningSecret)
	if errors.Is(err, auth.ErrNoToken) || errors.Is(err, auth.ErrInvalidToken) {
		req.log.Debug("unauthenticated dashboard request", "reason", err)
		loc := withQuery(rt.cfg.Pages.SignIn, "redirect_url", r.URL.RequestURI())
		return redirect(http.StatusTemporaryRedirect, loc, "unauthenticated"), false, nil
	}
	if err != nil {
		return Decision{}, false, &collaboratorError{stage: "verify", err: err}
	}

	if tenant != nil && claims.TenantID != "" && claims.TenantID != tenant.ID {
		req.rt.audit.Warn("cross-tenant access attempt",
			"event", "cross_tenant_access",
			"token_tenant_id", claims.TenantID,
			"resolved_tenant_id", tenant.ID,
			"subject", claims.Subject,
			"action", "redirect_unauthorized",
			"host", r.Host,
			"path", r.URL.Path,
			"client_key", req.clientKey,
			"request_id", req.requestID,
		)
		rt.metrics.AuditEvent("cross_tenant_access")
		return redirect(http.StatusTemporaryRedirect, rt.cfg.Pages.Unauthorized, "cross_tenant"), false, nil
	}

	return Decision{}, true, nil
}

func (rt *Router) protected(urlPath string) bool {
	return hasPathPrefix(urlPath, rt.cfg.ProtectedPrefix)
}

// Classify exposes the router's hostname classification for operator tooling.
func (rt *Router) Classify(host string) hostname.Result {
	return hostname.Classify(host, rt.hostOpts)
}

func noStore() security.Headers {
	return security.Headers{{Key: "Cache-Control", Value: tenantCacheCtl}}
}

func tenantHeaders(t *models.Tenant) security.Headers {
	settings := string(t.Settings)
	if settings == "" {
		settings = "{}"
	}
	return security.Headers{
		{Key: HeaderTenantID, Value: t.ID},
		{Key: HeaderTenantSubdomain, Value: t.Subdomain},
		{Key: HeaderTenantSettings, Value: settings},
	}
}
