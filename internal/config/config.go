// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/shopspring/decimal"

	"cj-bridge/internal/cj"
	"cj-bridge/internal/gateway"
	"cj-bridge/internal/model"
	"cj-bridge/internal/reconcile"
)

const (
	defaultPort            = "8080"
	defaultEnvironment     = "development"
	defaultLogLevel        = "info"
	defaultSecretID        = "cj-credentials"
	defaultSweepInterval   = 15 * time.Minute
	defaultSweepWorkers    = 4
	defaultCountryFallback = "US"
	defaultStartCountry    = "CN"
)

// Config holds all service configuration.
// Environment determines whether CJ credentials load from env vars (development)
// or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	SecretID   string

	// Persistence; both optional
	DatabaseURL  string
	RedisAddress string

	Sweep SweepConfig
	CJ    CJConfig
}

// SweepConfig controls the periodic tracking sweep.
type SweepConfig struct {
	Interval    time.Duration
	Concurrency int
}

// CJConfig contains the supplier account and pricing settings.
// In production the credential fields come from Secret Manager as JSON.
type CJConfig struct {
	BaseURL   string `json:"base_url,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	APIKey    string `json:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty"`
	UserID    string `json:"user_id,omitempty"`

	DefaultCountry string `json:"default_country,omitempty"`
	StartCountry   string `json:"start_country,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`

	PriceMultiplier     decimal.Decimal `json:"price_multiplier"`
	CompareAtMultiplier decimal.Decimal `json:"compare_at_multiplier"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:         envOrDefault("PORT", defaultPort),
		Environment:  envOrDefault("ENVIRONMENT", defaultEnvironment),
		LogLevel:     envOrDefault("LOG_LEVEL", defaultLogLevel),
		GCPProject:   os.Getenv("GCP_PROJECT"),
		SecretID:     envOrDefault("CJ_SECRET_ID", defaultSecretID),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddress: os.Getenv("REDIS_ADDRESS"),
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	// Production overlays the secret bundle on top of the env values
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading CJ credentials: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port             string   `json:"port"`
		Environment      string   `json:"environment"`
		LogLevel         string   `json:"log_level"`
		DatabaseURL      string   `json:"database_url"`
		RedisAddress     string   `json:"redis_address"`
		SweepInterval    string   `json:"sweep_interval"`
		SweepConcurrency int      `json:"sweep_concurrency"`
		CJ               CJConfig `json:"cj"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:         withDefault(fileConfig.Port, defaultPort),
		Environment:  withDefault(fileConfig.Environment, defaultEnvironment),
		LogLevel:     withDefault(fileConfig.LogLevel, defaultLogLevel),
		DatabaseURL:  fileConfig.DatabaseURL,
		RedisAddress: fileConfig.RedisAddress,
		Sweep:        SweepConfig{Concurrency: fileConfig.SweepConcurrency},
		CJ:           fileConfig.CJ,
	}

	if fileConfig.SweepInterval != "" {
		d, err := time.ParseDuration(fileConfig.SweepInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid sweep_interval: %w", err)
		}
		cfg.Sweep.Interval = d
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromSecretManager fetches the CJ credential bundle from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
// Keys absent from the secret keep their env values.
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	return c.applySecret(result.Payload.Data)
}

// applySecret merges a JSON credential bundle into the CJ config.
func (c *Config) applySecret(data []byte) error {
	if err := json.Unmarshal(data, &c.CJ); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads settings from individual environment variables.
func (c *Config) loadFromEnv() error {
	c.CJ = CJConfig{
		BaseURL:        os.Getenv("CJ_BASE_URL"),
		Email:          os.Getenv("CJ_EMAIL"),
		Password:       os.Getenv("CJ_PASSWORD"),
		APIKey:         os.Getenv("CJ_API_KEY"),
		APISecret:      os.Getenv("CJ_API_SECRET"),
		UserID:         os.Getenv("CJ_USER_ID"),
		DefaultCountry: os.Getenv("CJ_DEFAULT_COUNTRY"),
		StartCountry:   os.Getenv("CJ_START_COUNTRY"),
		TrackingURL:    os.Getenv("CJ_TRACKING_URL"),
	}

	var err error
	if c.CJ.PriceMultiplier, err = envDecimal("PRICE_MULTIPLIER"); err != nil {
		return err
	}
	if c.CJ.CompareAtMultiplier, err = envDecimal("COMPARE_AT_MULTIPLIER"); err != nil {
		return err
	}

	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parsing SWEEP_INTERVAL: %w", err)
		}
		c.Sweep.Interval = d
	}
	if raw := os.Getenv("SWEEP_CONCURRENCY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parsing SWEEP_CONCURRENCY: %w", err)
		}
		c.Sweep.Concurrency = n
	}

	return nil
}

func (c *Config) applyDefaults() {
	pricing := model.DefaultTransformConfig()
	if c.CJ.PriceMultiplier.IsZero() {
		c.CJ.PriceMultiplier = pricing.PriceMultiplier
	}
	if c.CJ.CompareAtMultiplier.IsZero() {
		c.CJ.CompareAtMultiplier = pricing.CompareAtMultiplier
	}
	c.CJ.DefaultCountry = strings.ToUpper(withDefault(c.CJ.DefaultCountry, defaultCountryFallback))
	c.CJ.StartCountry = strings.ToUpper(withDefault(c.CJ.StartCountry, defaultStartCountry))
	c.CJ.TrackingURL = withDefault(c.CJ.TrackingURL, reconcile.DefaultTrackingURL)
	if c.Sweep.Interval == 0 {
		c.Sweep.Interval = defaultSweepInterval
	}
	if c.Sweep.Concurrency == 0 {
		c.Sweep.Concurrency = defaultSweepWorkers
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.CJ.Email == "" || c.CJ.Password == "" {
		return model.NewConfigError("CJ email and password are required")
	}
	if c.CJ.PriceMultiplier.Sign() < 0 || c.CJ.CompareAtMultiplier.Sign() < 0 {
		return fmt.Errorf("price multipliers must not be negative")
	}
	if len(c.CJ.DefaultCountry) != 2 || len(c.CJ.StartCountry) != 2 {
		return fmt.Errorf("country codes must be ISO 3166-1 alpha-2")
	}
	if strings.Count(c.CJ.TrackingURL, "%s") != 1 {
		return fmt.Errorf("tracking URL template must contain exactly one %%s")
	}
	if c.Sweep.Interval < time.Minute {
		return fmt.Errorf("sweep interval must be at least 1m, got %s", c.Sweep.Interval)
	}
	if c.Sweep.Concurrency < 1 {
		return fmt.Errorf("sweep concurrency must be positive, got %d", c.Sweep.Concurrency)
	}
	return nil
}

// Credentials returns the CJ account credentials for the client and token manager.
func (c *Config) Credentials() cj.Credentials {
	return cj.Credentials{
		Email:     c.CJ.Email,
		Password:  c.CJ.Password,
		APIKey:    c.CJ.APIKey,
		APISecret: c.CJ.APISecret,
		UserID:    c.CJ.UserID,
	}
}

// GatewayConfig builds the pricing and country settings used by the gateway.
func (c *Config) GatewayConfig() gateway.Config {
	return gateway.Config{
		Pricing: model.TransformConfig{
			PriceMultiplier:     c.CJ.PriceMultiplier,
			CompareAtMultiplier: c.CJ.CompareAtMultiplier,
			SourceCountry:       c.CJ.StartCountry,
		},
		DefaultCountry: c.CJ.DefaultCountry,
		StartCountry:   c.CJ.StartCountry,
	}
}

// SweepSettings converts the sweep settings for reconcile.NewSweeper.
func (c *Config) SweepSettings() reconcile.SweepConfig {
	return reconcile.SweepConfig{
		Interval:    c.Sweep.Interval,
		Concurrency: c.Sweep.Concurrency,
	}
}

// NewLogger creates a structured logger from the loaded Environment and
// LogLevel, whichever source they came from.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	if c.Environment == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// envDecimal parses an optional decimal environment variable.
func envDecimal(key string) (decimal.Decimal, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
