package config

import (
	"reflect"
	"testing"
	"time"
)

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	// Server
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// App
	t.Setenv("DB_PATH", "db.sqlite")

	// Rate limiting (invalid values fall back to defaults)
	t.Setenv("RATE_RPS", "x")
	t.Setenv("RATE_BURST", "nope")

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Upstream catalog
	t.Setenv("MANGADEX_BASE_URL", "https://api.test.local")
	t.Setenv("MANGADEX_RATE_LIMIT_PER_SEC", "3")
	t.Setenv("CACHE_MANGA_TTL_HOURS", "12")
	t.Setenv("CACHE_CHAPTER_TTL_HOURS", "2")
	t.Setenv("MANGADEX_USERNAME", "reader")
	t.Setenv("MANGADEX_PASSWORD", "hunter2")
	t.Setenv("MANGADEX_CLIENT_ID", "cid")
	t.Setenv("MANGADEX_CLIENT_SECRET", "csecret")

	// Accounts
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ACCESS_TOKEN_TTL_SECS", "600")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "14")
	t.Setenv("PASSWORD_MIN_LENGTH", "10")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}

	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}

	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate fields unexpected: rps=%v burst=%d", cfg.RateRPS, cfg.RateBurst)
	}

	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("CORS origins unexpected: %+v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security fields unexpected: %+v", cfg.Security)
	}

	md := cfg.MangaDex
	if md.BaseURL != "https://api.test.local" ||
		md.RateLimitPerSec != 3 ||
		md.MangaTTL != 12*time.Hour ||
		md.ChapterTTL != 2*time.Hour {
		t.Fatalf("mangadex fields unexpected: %+v", md)
	}
	if !md.HasCredentials() {
		t.Fatal("HasCredentials() = false with a full set")
	}

	if cfg.Auth.JWTSecret != "test-secret" ||
		cfg.Auth.AccessTokenTTL != 600*time.Second ||
		cfg.Auth.RefreshTokenTTL != 14*24*time.Hour ||
		cfg.Auth.PasswordMinLength != 10 {
		t.Fatalf("auth fields unexpected: %+v", cfg.Auth)
	}

	o := cfg.OTEL
	if !o.Enabled || o.Endpoint != "otel:4317" || o.Insecure || o.ServiceName != "svc" || o.SampleRatio != 0.75 {
		t.Fatalf("otel fields unexpected: %+v", o)
	}
}

func TestLoad_BoolEnvParsing(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENABLE_HSTS", "on")     // truthy spelling
	t.Setenv("OTEL_ENABLED", "maybe") // garbage keeps the default

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Security.EnableHSTS {
		t.Fatal("ENABLE_HSTS=on not treated as true")
	}
	if cfg.OTEL.Enabled {
		t.Fatal("garbage OTEL_ENABLED flipped the default")
	}
}

func TestHasCredentials_RequiresFullSet(t *testing.T) {
	full := MangaDexConfig{Username: "u", Password: "p", ClientID: "i", ClientSecret: "s"}
	if !full.HasCredentials() {
		t.Fatal("full set should report credentials")
	}

	partials := []MangaDexConfig{
		{Password: "p", ClientID: "i", ClientSecret: "s"},
		{Username: "u", ClientID: "i", ClientSecret: "s"},
		{Username: "u", Password: "p", ClientSecret: "s"},
		{Username: "u", Password: "p", ClientID: "i"},
		{},
	}
	for i, m := range partials {
		if m.HasCredentials() {
			t.Fatalf("partial set %d should not report credentials", i)
		}
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"negative rate", "RATE_RPS", "-1"},
		{"zero burst", "RATE_BURST", "0"},
		{"empty base url", "MANGADEX_BASE_URL", " "},
		{"zero upstream rate", "MANGADEX_RATE_LIMIT_PER_SEC", "0"},
		{"zero manga ttl", "CACHE_MANGA_TTL_HOURS", "0"},
		{"zero access ttl", "ACCESS_TOKEN_TTL_SECS", "0"},
		{"zero min password", "PASSWORD_MIN_LENGTH", "0"},
		{"sampler out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without JWT_SECRET")
	}
}
