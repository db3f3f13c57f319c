package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	UpstreamURL string
	LogLevel    string

	// Routing
	ApexDomain string
	// CustomDomains defaults to false: custom-domain tenants do not resolve
	// until ENABLE_CUSTOM_DOMAINS is set.
	CustomDomains   bool
	BypassPrefixes  []string
	ProtectedPrefix string
	RedirectScheme  string

	// Auth. An empty JWTSecret is a handled configuration error, not a startup failure.
	JWTSecret     string
	SessionCookie string

	// Internal pages
	SignInPath       string
	UnauthorizedPath string
	ConfigErrorPath  string
	NotFoundPath     string
	SuspendedPath    string

	RateLimitPublic int
	RateLimitWindow time.Duration

	TenantCacheSize int
	TenantCacheTTL  time.Duration

	AdminEnabled bool
}

func Load() (*Config, error) {
	godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		UpstreamURL: getEnv("UPSTREAM_URL", "http://localhost:3000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		ApexDomain:      strings.ToLower(getEnv("APEX_DOMAIN", "localhost")),
		CustomDomains:   getBool("ENABLE_CUSTOM_DOMAINS", false),
		BypassPrefixes:  getList("BYPASS_PREFIXES", DefaultBypassPrefixes),
		ProtectedPrefix: getEnv("PROTECTED_PREFIX", "/dashboard"),
		RedirectScheme:  getEnv("REDIRECT_SCHEME", "https"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionCookie: getEnv("SESSION_COOKIE", "__session"),

		SignInPath:       getEnv("SIGN_IN_PATH", "/sign-in"),
		UnauthorizedPath: getEnv("UNAUTHORIZED_PATH", "/unauthorized"),
		ConfigErrorPath:  getEnv("CONFIG_ERROR_PATH", "/error?code=configuration"),
		NotFoundPath:     getEnv("NOT_FOUND_PATH", "/tenant-not-found"),
		SuspendedPath:    getEnv("SUSPENDED_PATH", "/tenant-suspended"),

		RateLimitPublic: getInt("RATE_LIMIT_PUBLIC", 100),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),

		TenantCacheSize: getInt("TENANT_CACHE_SIZE", 1024),
		TenantCacheTTL:  getDuration("TENANT_CACHE_TTL", 30*time.Second),

		AdminEnabled: getBool("ADMIN_ENABLED", false),
	}, nil
}

// DefaultBypassPrefixes covers framework assets, health checks and platform pages.
var DefaultBypassPrefixes = []string{
	"/_next/",
	"/static/",
	"/api/health",
	"/api/webhooks/",
	"/favicon.ico",
	"/robots.txt",
	"/sitemap.xml",
	"*.png",
	"*.jpg",
	"*.svg",
	"*.css",
	"*.js",
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return n
}

func getBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getList(key string, defaultVal []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
