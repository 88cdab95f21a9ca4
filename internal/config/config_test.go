package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cj-bridge/internal/model"
	"cj-bridge/internal/reconcile"
)

var configEnv = []string{
	"CONFIG_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL", "GCP_PROJECT", "CJ_SECRET_ID",
	"CJ_BASE_URL", "CJ_EMAIL", "CJ_PASSWORD", "CJ_API_KEY", "CJ_API_SECRET", "CJ_USER_ID",
	"CJ_DEFAULT_COUNTRY", "CJ_START_COUNTRY", "CJ_TRACKING_URL",
	"PRICE_MULTIPLIER", "COMPARE_AT_MULTIPLIER",
	"DATABASE_URL", "REDIS_ADDRESS", "SWEEP_INTERVAL", "SWEEP_CONCURRENCY",
}

// clearEnv blanks every key Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile, _ := os.CreateTemp(t.TempDir(), "config-*.json")
	tmpFile.WriteString(content)
	tmpFile.Close()
	return tmpFile.Name()
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("CJ_EMAIL", "ops@example.com")
	t.Setenv("CJ_PASSWORD", "secret")
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CJ_BASE_URL", "api.cjdropshipping.com")
	t.Setenv("CJ_API_KEY", "key")
	t.Setenv("CJ_USER_ID", "user-1")
	t.Setenv("CJ_DEFAULT_COUNTRY", "gb")
	t.Setenv("PRICE_MULTIPLIER", "2.5")
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("SWEEP_INTERVAL", "30m")
	t.Setenv("SWEEP_CONCURRENCY", "8")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Verify server settings
	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.DatabaseURL != "postgres://localhost/shop" || cfg.RedisAddress != "localhost:6379" {
		t.Errorf("persistence = %q, %q", cfg.DatabaseURL, cfg.RedisAddress)
	}

	// Verify CJ config
	if cfg.CJ.BaseURL != "api.cjdropshipping.com" {
		t.Errorf("BaseURL = %s, want raw value (normalized by the client)", cfg.CJ.BaseURL)
	}
	if cfg.CJ.DefaultCountry != "GB" {
		t.Errorf("DefaultCountry = %s, want GB", cfg.CJ.DefaultCountry)
	}
	if cfg.CJ.StartCountry != "CN" {
		t.Errorf("StartCountry = %s, want CN", cfg.CJ.StartCountry)
	}
	if !cfg.CJ.PriceMultiplier.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("PriceMultiplier = %s, want 2.5", cfg.CJ.PriceMultiplier)
	}
	if !cfg.CJ.CompareAtMultiplier.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("CompareAtMultiplier = %s, want default 1.5", cfg.CJ.CompareAtMultiplier)
	}
	if cfg.CJ.TrackingURL != reconcile.DefaultTrackingURL {
		t.Errorf("TrackingURL = %s, want default", cfg.CJ.TrackingURL)
	}

	// Verify sweep settings
	if cfg.Sweep.Interval != 30*time.Minute || cfg.Sweep.Concurrency != 8 {
		t.Errorf("Sweep = %+v", cfg.Sweep)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Environment != "development" || cfg.LogLevel != "info" {
		t.Errorf("server defaults = %q, %q, %q", cfg.Port, cfg.Environment, cfg.LogLevel)
	}
	if cfg.SecretID != "cj-credentials" {
		t.Errorf("SecretID = %s, want cj-credentials", cfg.SecretID)
	}
	if cfg.CJ.DefaultCountry != "US" {
		t.Errorf("DefaultCountry = %s, want US", cfg.CJ.DefaultCountry)
	}
	if cfg.Sweep.Interval != 15*time.Minute || cfg.Sweep.Concurrency != 4 {
		t.Errorf("Sweep = %+v", cfg.Sweep)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T)
	}{
		{"missing both", func(t *testing.T) {}},
		{"missing password", func(t *testing.T) { t.Setenv("CJ_EMAIL", "ops@example.com") }},
		{"missing email", func(t *testing.T) { t.Setenv("CJ_PASSWORD", "secret") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			tt.setup(t)

			_, err := Load(context.Background())
			if err == nil {
				t.Fatal("Expected error for missing credentials")
			}
			if !errors.Is(err, model.ErrConfig) {
				t.Errorf("Error = %v, want ErrConfig", err)
			}
		})
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"bad multiplier", "PRICE_MULTIPLIER", "two", "PRICE_MULTIPLIER"},
		{"negative multiplier", "COMPARE_AT_MULTIPLIER", "-1", "must not be negative"},
		{"bad interval", "SWEEP_INTERVAL", "often", "SWEEP_INTERVAL"},
		{"short interval", "SWEEP_INTERVAL", "5s", "at least 1m"},
		{"bad concurrency", "SWEEP_CONCURRENCY", "many", "SWEEP_CONCURRENCY"},
		{"negative concurrency", "SWEEP_CONCURRENCY", "-2", "must be positive"},
		{"bad country", "CJ_DEFAULT_COUNTRY", "USA", "alpha-2"},
		{"tracking template", "CJ_TRACKING_URL", "https://track.example/", "exactly one %s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setCredentials(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(context.Background())
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadProductionRequiresProject(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "GCP_PROJECT") {
		t.Errorf("expected GCP_PROJECT error, got: %v", err)
	}
}

func TestApplySecret(t *testing.T) {
	cfg := &Config{CJ: CJConfig{Email: "env@example.com", DefaultCountry: "DE"}}

	err := cfg.applySecret([]byte(`{"email":"vault@example.com","password":"pw","api_key":"k","api_secret":"s"}`))
	if err != nil {
		t.Fatalf("applySecret() error: %v", err)
	}

	if cfg.CJ.Email != "vault@example.com" || cfg.CJ.Password != "pw" {
		t.Errorf("credentials = %+v", cfg.CJ)
	}
	if cfg.CJ.DefaultCountry != "DE" {
		t.Errorf("DefaultCountry = %s, want env value kept", cfg.CJ.DefaultCountry)
	}

	if err := cfg.applySecret([]byte("{not json")); err == nil {
		t.Error("expected error for invalid secret JSON")
	}
}

func TestDerivedSettings(t *testing.T) {
	cfg := &Config{
		Sweep: SweepConfig{Interval: time.Hour, Concurrency: 2},
		CJ: CJConfig{
			Email:               "ops@example.com",
			Password:            "secret",
			APIKey:              "key",
			APISecret:           "sec",
			UserID:              "u1",
			DefaultCountry:      "US",
			StartCountry:        "CN",
			PriceMultiplier:     decimal.NewFromInt(3),
			CompareAtMultiplier: decimal.RequireFromString("1.2"),
		},
	}

	creds := cfg.Credentials()
	if !creds.HasLogin() || creds.APIKey != "key" || creds.UserID != "u1" {
		t.Errorf("Credentials() = %+v", creds)
	}

	gw := cfg.GatewayConfig()
	if !gw.Pricing.PriceMultiplier.Equal(decimal.NewFromInt(3)) {
		t.Errorf("PriceMultiplier = %s, want 3", gw.Pricing.PriceMultiplier)
	}
	if gw.Pricing.SourceCountry != "CN" || gw.DefaultCountry != "US" || gw.StartCountry != "CN" {
		t.Errorf("GatewayConfig() = %+v", gw)
	}

	sweep := cfg.SweepSettings()
	if sweep.Interval != time.Hour || sweep.Concurrency != 2 {
		t.Errorf("SweepSettings() = %+v", sweep)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{Environment: "production", LogLevel: "warn"}
	logger := cfg.NewLogger(io.Discard)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be enabled at warn level")
	}
	if _, ok := logger.Handler().(*slog.JSONHandler); !ok {
		t.Errorf("production handler = %T, want *slog.JSONHandler", logger.Handler())
	}

	dev := (&Config{LogLevel: "debug"}).NewLogger(io.Discard)
	if !dev.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled at debug level")
	}
	if _, ok := dev.Handler().(*slog.TextHandler); !ok {
		t.Errorf("development handler = %T, want *slog.TextHandler", dev.Handler())
	}
}

func TestNewLoggerFromConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CONFIG_FILE", writeFile(t, `{"log_level":"debug","cj":{"email":"ops@example.com","password":"pw"}}`))

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.NewLogger(io.Discard).Enabled(context.Background(), slog.LevelDebug) {
		t.Error("log_level from CONFIG_FILE should enable debug")
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	if got := envOrDefault("TEST_VAR", "default"); got != "value" {
		t.Errorf("envOrDefault(TEST_VAR) = %q, want value", got)
	}
	if got := envOrDefault("NONEXISTENT_VAR_12345", "default"); got != "default" {
		t.Errorf("envOrDefault(NONEXISTENT) = %q, want default", got)
	}
}

func TestWithDefault(t *testing.T) {
	if got := withDefault("value", "default"); got != "value" {
		t.Errorf("withDefault(value, default) = %q, want value", got)
	}
	if got := withDefault("", "default"); got != "default" {
		t.Errorf("withDefault('', default) = %q, want default", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	content := `{
		"port": "9090",
		"log_level": "debug",
		"database_url": "postgres://localhost/shop",
		"sweep_interval": "1h",
		"cj": {
			"email": "file@example.com",
			"password": "pw",
			"api_key": "k",
			"price_multiplier": "3",
			"tracking_url": "https://t.example/?n=%s"
		}
	}`

	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	t.Setenv("CONFIG_FILE", tmpFile.Name())

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.CJ.Email != "file@example.com" {
		t.Errorf("Email = %s, want file@example.com", cfg.CJ.Email)
	}
	if !cfg.CJ.PriceMultiplier.Equal(decimal.NewFromInt(3)) {
		t.Errorf("PriceMultiplier = %s, want 3", cfg.CJ.PriceMultiplier)
	}
	if cfg.CJ.TrackingURL != "https://t.example/?n=%s" {
		t.Errorf("TrackingURL = %s", cfg.CJ.TrackingURL)
	}
	if cfg.Sweep.Interval != time.Hour || cfg.Sweep.Concurrency != 4 {
		t.Errorf("Sweep = %+v", cfg.Sweep)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	clearEnv(t)

	t.Run("file not found", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "/nonexistent/config.json")
		_, err := Load(context.Background())
		if err == nil {
			t.Error("expected error for nonexistent file")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", writeFile(t, "{invalid json"))
		_, err := Load(context.Background())
		if err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", writeFile(t, `{"cj": {"email": "a@example.com"}}`))
		_, err := Load(context.Background())
		if !errors.Is(err, model.ErrConfig) {
			t.Errorf("expected config error, got: %v", err)
		}
	})

	t.Run("invalid sweep interval", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", writeFile(t, `{"sweep_interval": "soon", "cj": {"email": "a@example.com", "password": "p"}}`))
		_, err := Load(context.Background())
		if err == nil || !strings.Contains(err.Error(), "sweep_interval") {
			t.Errorf("expected sweep_interval error, got: %v", err)
		}
	})
}
