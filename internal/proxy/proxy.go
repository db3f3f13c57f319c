package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"
)

// Handler forwards routed requests to the storefront application that renders
// pages. It sits behind the tenant router, so paths arrive already rewritten.
type Handler struct {
	proxy   *httputil.ReverseProxy
	timeout time.Duration
	logger  *slog.Logger
}

func NewHandler(upstreamURL string, timeout time.Duration, logger *slog.Logger) (*Handler, error) {
	backendURL, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, err
	}
	if backendURL.Scheme == "" || backendURL.Host == "" {
		return nil, errors.New("proxy: upstream URL must be absolute")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	proxy := httputil.NewSingleHostReverseProxy(backendURL)
	proxy.Transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		host := req.Host
		originalDirector(req)
		req.Header.Set("X-Forwarded-Host", host)
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream request failed", "path", r.URL.Path, "error", err)

		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(r.Context().Err(), context.DeadlineExceeded):
			http.Error(w, "Upstream timeout", http.StatusGatewayTimeout)
		case strings.Contains(err.Error(), "no such host"):
			http.Error(w, "Upstream DNS resolution failed", http.StatusBadGateway)
		default:
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		}
	}

	return &Handler{proxy: proxy, timeout: timeout, logger: logger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.proxy.ServeHTTP(w, r.WithContext(ctx))
}
