package config

import (
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY", "SWAGGER_ENABLED",
		"API_BASE_PATH", "DB_PATH", "SWEEP_INTERVAL", "STALE_AFTER", "WS_SEND_BUFFER",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS", "ENABLE_HSTS", "HSTS_MAX_AGE",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port default = %q", cfg.Port)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("SweepInterval default = %v", cfg.SweepInterval)
	}
	if cfg.StaleAfter != 30*time.Minute {
		t.Fatalf("StaleAfter default = %v", cfg.StaleAfter)
	}
	if cfg.WSSendBuffer != 256 {
		t.Fatalf("WSSendBuffer default = %d", cfg.WSSendBuffer)
	}
	if cfg.APIBasePath != "/" {
		t.Fatalf("APIBasePath default = %q", cfg.APIBasePath)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode default = %q", cfg.GinMode)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("STALE_AFTER", "10m")
	t.Setenv("API_BASE_PATH", "api/v1/")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("SweepInterval = %v", cfg.SweepInterval)
	}
	if cfg.StaleAfter != 10*time.Minute {
		t.Fatalf("StaleAfter = %v", cfg.StaleAfter)
	}
	// Base path gains a leading slash and loses the trailing one.
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	// "warning" normalizes to "warn".
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name, key, val string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"zero sweep interval", "SWEEP_INTERVAL", "0s"},
		{"negative stale after", "STALE_AFTER", "-1m"},
		{"zero send buffer", "WS_SEND_BUFFER", "0"},
		{"negative rate", "RATE_RPS", "-1"},
		{"zero burst", "RATE_BURST", "0"},
		{"bad sampler ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestLoad_InvalidGinModeFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GIN_MODE", "strange")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
}
