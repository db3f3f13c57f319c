package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HanTheDev/storefront-router/internal/admin"
	"github.com/HanTheDev/storefront-router/internal/auth"
	"github.com/HanTheDev/storefront-router/internal/cache"
	"github.com/HanTheDev/storefront-router/internal/config"
	"github.com/HanTheDev/storefront-router/internal/db"
	"github.com/HanTheDev/storefront-router/internal/metrics"
	"github.com/HanTheDev/storefront-router/internal/proxy"
	"github.com/HanTheDev/storefront-router/internal/ratelimit"
	"github.com/HanTheDev/storefront-router/internal/router"
	"github.com/HanTheDev/storefront-router/internal/security"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// opsPrefix namespaces router-owned endpoints so they never shadow tenant paths.
const opsPrefix = "/_router"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set; dashboard requests will be sent to the configuration error page")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Initialize rate limiter
	limiter, err := newLimiter(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize rate limiter", "error", err)
		os.Exit(1)
	}
	defer limiter.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	routerMetrics := metrics.New(registry, "storefront")

	tenantCache := cache.NewTenantCache(database, cfg.TenantCacheSize, cfg.TenantCacheTTL)

	tenantRouter, err := router.New(router.Config{
		ApexDomain:      cfg.ApexDomain,
		CustomDomains:   cfg.CustomDomains,
		BypassPrefixes:  cfg.BypassPrefixes,
		ProtectedPrefix: cfg.ProtectedPrefix,
		RedirectScheme:  cfg.RedirectScheme,
		SigningSecret:   cfg.JWTSecret,
		RateLimitPolicy: ratelimit.PolicyPublic,
		RetryAfter:      cfg.RateLimitWindow,
		Pages: router.Pages{
			SignIn:       cfg.SignInPath,
			Unauthorized: cfg.UnauthorizedPath,
			ConfigError:  cfg.ConfigErrorPath,
			NotFound:     cfg.NotFoundPath,
			Suspended:    cfg.SuspendedPath,
		},
		SecurityHeaders: security.DefaultHeaders(),
	}, router.Deps{
		Lookup:   tenantCache,
		Verifier: auth.NewSessionVerifier(cfg.SessionCookie),
		Limiter:  limiter,
		Logger:   logger,
		Metrics:  routerMetrics,
	})
	if err != nil {
		logger.Error("failed to initialize tenant router", "error", err)
		os.Exit(1)
	}

	upstream, err := proxy.NewHandler(cfg.UpstreamURL, 30*time.Second, logger)
	if err != nil {
		logger.Error("invalid upstream URL", "upstream", cfg.UpstreamURL, "error", err)
		os.Exit(1)
	}

	// Initialize router
	r := mux.NewRouter()

	r.HandleFunc(opsPrefix+"/health", healthHandler(database)).Methods("GET")
	r.Handle(opsPrefix+"/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")

	if cfg.AdminEnabled {
		adminRouter := r.PathPrefix(opsPrefix + "/admin").Subrouter()
		adminRouter.Use(auth.NewMiddleware(cfg.JWTSecret).Authenticate)
		admin.NewAdminHandler(database, tenantCache, tenantRouter, logger).RegisterRoutes(adminRouter)
	}

	// Everything else is storefront traffic
	r.PathPrefix("/").Handler(tenantRouter.Middleware(upstream))

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			"port", cfg.ServerPort,
			"apex_domain", cfg.ApexDomain,
			"upstream", cfg.UpstreamURL,
			"admin_enabled", cfg.AdminEnabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

type limiterCloser interface {
	router.RateLimiter
	io.Closer
}

func newLimiter(cfg *config.Config, logger *slog.Logger) (limiterCloser, error) {
	policies := ratelimit.Policies{
		ratelimit.PolicyPublic: {Limit: cfg.RateLimitPublic, Window: cfg.RateLimitWindow},
	}

	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, using per-process rate limiting")
		return ratelimit.NewMemoryLimiter(policies), nil
	}

	rl, err := ratelimit.NewRateLimiter(cfg.RedisURL, policies)
	if err != nil {
		return nil, err
	}
	return rl, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func healthHandler(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		if err := database.Ping(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"version": "1.0.0",
		})
	}
}
