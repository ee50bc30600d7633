// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting, upstream
// catalog access, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/denshikawa/go-manga-backend/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-manga-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// MangaDexConfig defines upstream catalog access settings.
//
// Username/Password/ClientID/ClientSecret are optional as a group: when the
// set is incomplete the client operates unauthenticated and never talks to
// the identity endpoint.
type MangaDexConfig struct {
	BaseURL         string        // MANGADEX_BASE_URL
	AuthURL         string        // MANGADEX_AUTH_URL (token endpoint)
	UserAgent       string        // MANGADEX_USER_AGENT
	RateLimitPerSec int           // MANGADEX_RATE_LIMIT_PER_SEC (outbound)
	MangaTTL        time.Duration // CACHE_MANGA_TTL_HOURS
	ChapterTTL      time.Duration // CACHE_CHAPTER_TTL_HOURS
	Username        string        // MANGADEX_USERNAME
	Password        string        // MANGADEX_PASSWORD
	ClientID        string        // MANGADEX_CLIENT_ID
	ClientSecret    string        // MANGADEX_CLIENT_SECRET
}

// HasCredentials reports whether a full credential set is configured.
func (m MangaDexConfig) HasCredentials() bool {
	return m.Username != "" && m.Password != "" && m.ClientID != "" && m.ClientSecret != ""
}

// AuthConfig defines settings for the backend's own user accounts.
type AuthConfig struct {
	JWTSecret         string        // JWT_SECRET
	AccessTokenTTL    time.Duration // ACCESS_TOKEN_TTL_SECS
	RefreshTokenTTL   time.Duration // REFRESH_TOKEN_TTL_DAYS
	PasswordMinLength int           // PASSWORD_MIN_LENGTH
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath string // SQLite path

	// Inbound rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Upstream catalog
	MangaDex MangaDexConfig

	// User accounts
	Auth AuthConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "app.db"),

		// Inbound rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Upstream catalog
		MangaDex: MangaDexConfig{
			BaseURL:         getenv("MANGADEX_BASE_URL", "https://api.mangadex.org"),
			AuthURL:         getenv("MANGADEX_AUTH_URL", "https://auth.mangadex.org/realms/mangadex/protocol/openid-connect/token"),
			UserAgent:       getenv("MANGADEX_USER_AGENT", "Denshikawa/1.0"),
			RateLimitPerSec: getint("MANGADEX_RATE_LIMIT_PER_SEC", 5),
			MangaTTL:        time.Duration(getint("CACHE_MANGA_TTL_HOURS", 24)) * time.Hour,
			ChapterTTL:      time.Duration(getint("CACHE_CHAPTER_TTL_HOURS", 6)) * time.Hour,
			Username:        getenv("MANGADEX_USERNAME", ""),
			Password:        getenv("MANGADEX_PASSWORD", ""),
			ClientID:        getenv("MANGADEX_CLIENT_ID", ""),
			ClientSecret:    getenv("MANGADEX_CLIENT_SECRET", ""),
		},

		// User accounts
		Auth: AuthConfig{
			JWTSecret:         getenv("JWT_SECRET", ""),
			AccessTokenTTL:    time.Duration(getint("ACCESS_TOKEN_TTL_SECS", 900)) * time.Second,
			RefreshTokenTTL:   time.Duration(getint("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
			PasswordMinLength: getint("PASSWORD_MIN_LENGTH", 8),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-manga-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if strings.TrimSpace(cfg.MangaDex.BaseURL) == "" {
		return cfg, errors.New("MANGADEX_BASE_URL must not be empty")
	}
	if cfg.MangaDex.RateLimitPerSec < 1 {
		return cfg, errors.New("MANGADEX_RATE_LIMIT_PER_SEC must be >= 1")
	}
	if cfg.MangaDex.MangaTTL <= 0 || cfg.MangaDex.ChapterTTL <= 0 {
		return cfg, errors.New("cache TTLs must be positive")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return cfg, errors.New("JWT_SECRET must be set (use a strong random string)")
	}
	if cfg.Auth.AccessTokenTTL <= 0 || cfg.Auth.RefreshTokenTTL <= 0 {
		return cfg, errors.New("token TTLs must be positive")
	}
	if cfg.Auth.PasswordMinLength < 1 {
		return cfg, errors.New("PASSWORD_MIN_LENGTH must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- env helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
