// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Nonce store backends.
const (
	NonceStoreNone   = "none"
	NonceStoreMemory = "memory"
	NonceStoreSQL    = "sql"
	NonceStoreRedis  = "redis"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Auth     AuthConfig     `yaml:"auth"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	OpenAPI  OpenAPIConfig  `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"` // chi Timeout middleware
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// APIConfig configures request dispatch.
type APIConfig struct {
	Version              string `yaml:"version"`
	Debug                bool   `yaml:"debug"`          // tracebacks in unhandled failures
	DefaultFormat        string `yaml:"default_format"` // json, xml, yaml or cbor
	MaxBodyBytes         int64  `yaml:"max_body_bytes"`
	RequireContentLength bool   `yaml:"require_content_length"`
	SampleResources      bool   `yaml:"sample_resources"` // mount /echo, /languages, /notes, /accounts
}

// AuthConfig configures OAuth1 request signing.
type AuthConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Skew       time.Duration `yaml:"skew"`
	NonceStore string        `yaml:"nonce_store"` // none, memory, sql or redis
	NonceTTL   time.Duration `yaml:"nonce_ttl"`
	Redis      RedisConfig   `yaml:"redis,omitempty"`
}

// RedisConfig configures the Redis nonce store.
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix,omitempty"`
}

// ThrottleConfig configures per-consumer request throttling.
type ThrottleConfig struct {
	Enabled   bool    `yaml:"enabled"`
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OpenAPIConfig configures the generated API description.
type OpenAPIConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	HOOPS_SERVER_HOST            - Server host (default: 0.0.0.0)
//	HOOPS_SERVER_PORT            - Server port (default: 8080)
//	HOOPS_DATABASE_DRIVER        - sqlite or postgres (default: sqlite)
//	HOOPS_DATABASE_DSN           - Database path or URL (default: hoops.db)
//	HOOPS_API_VERSION            - Reported API version (default: 1.0)
//	HOOPS_API_DEBUG              - Attach tracebacks to unhandled failures
//	HOOPS_API_DEFAULT_FORMAT     - json, xml, yaml or cbor (default: json)
//	HOOPS_API_MAX_BODY_BYTES     - Request body limit (default: 1048576)
//	HOOPS_API_SAMPLE_RESOURCES   - Mount the sample resources
//	HOOPS_AUTH_ENABLED           - Require OAuth1 signatures
//	HOOPS_AUTH_NONCE_STORE       - none, memory, sql or redis (default: none)
//	HOOPS_AUTH_REDIS_URL         - Redis URL for the redis nonce store
//	HOOPS_THROTTLE_ENABLED       - Enable per-consumer throttling
//	HOOPS_LOG_LEVEL              - debug, info, warn, error (default: info)
//	HOOPS_LOG_FORMAT             - json or console (default: json)
//	HOOPS_METRICS_ENABLED        - Enable /metrics
//	HOOPS_OPENAPI_ENABLED        - Enable /.well-known/openapi.json and /swagger/
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies HOOPS_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("HOOPS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HOOPS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HOOPS_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("HOOPS_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("HOOPS_SERVER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}

	// Database configuration
	if v := os.Getenv("HOOPS_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("HOOPS_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// API configuration
	if v := os.Getenv("HOOPS_API_VERSION"); v != "" {
		cfg.API.Version = v
	}
	if v := os.Getenv("HOOPS_API_DEBUG"); v != "" {
		cfg.API.Debug = parseBool(v)
	}
	if v := os.Getenv("HOOPS_API_DEFAULT_FORMAT"); v != "" {
		cfg.API.DefaultFormat = v
	}
	if v := os.Getenv("HOOPS_API_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.API.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("HOOPS_API_REQUIRE_CONTENT_LENGTH"); v != "" {
		cfg.API.RequireContentLength = parseBool(v)
	}
	if v := os.Getenv("HOOPS_API_SAMPLE_RESOURCES"); v != "" {
		cfg.API.SampleResources = parseBool(v)
	}

	// Auth configuration
	if v := os.Getenv("HOOPS_AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = parseBool(v)
	}
	if v := os.Getenv("HOOPS_AUTH_SKEW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.Skew = d
		}
	}
	if v := os.Getenv("HOOPS_AUTH_NONCE_STORE"); v != "" {
		cfg.Auth.NonceStore = v
	}
	if v := os.Getenv("HOOPS_AUTH_REDIS_URL"); v != "" {
		cfg.Auth.Redis.URL = v
	}

	// Throttle configuration
	if v := os.Getenv("HOOPS_THROTTLE_ENABLED"); v != "" {
		cfg.Throttle.Enabled = parseBool(v)
	}
	if v := os.Getenv("HOOPS_THROTTLE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Throttle.PerSecond = f
		}
	}
	if v := os.Getenv("HOOPS_THROTTLE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Throttle.Burst = n
		}
	}

	// Logging configuration
	if v := os.Getenv("HOOPS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HOOPS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("HOOPS_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("HOOPS_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "hoops.db"
	}

	if cfg.API.Version == "" {
		cfg.API.Version = "1.0"
	}
	if cfg.API.DefaultFormat == "" {
		cfg.API.DefaultFormat = "json"
	}
	if cfg.API.MaxBodyBytes == 0 {
		cfg.API.MaxBodyBytes = 1 << 20
	}

	if cfg.Auth.Skew == 0 {
		cfg.Auth.Skew = 15 * time.Minute
	}
	if cfg.Auth.NonceStore == "" {
		cfg.Auth.NonceStore = NonceStoreNone
	}
	if cfg.Auth.NonceTTL == 0 {
		cfg.Auth.NonceTTL = 2 * cfg.Auth.Skew
	}

	if cfg.Throttle.PerSecond == 0 {
		cfg.Throttle.PerSecond = 10
	}
	if cfg.Throttle.Burst == 0 {
		cfg.Throttle.Burst = 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.OpenAPI.Title == "" {
		cfg.OpenAPI.Title = "hoops API"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{"sqlite": true, "sqlite3": true, "postgres": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'postgres', got %q", cfg.Database.Driver)
	}

	validFormats := map[string]bool{"json": true, "xml": true, "yaml": true, "cbor": true}
	if !validFormats[cfg.API.DefaultFormat] {
		return fmt.Errorf("api.default_format must be one of: json, xml, yaml, cbor")
	}
	if cfg.API.MaxBodyBytes < 0 {
		return fmt.Errorf("api.max_body_bytes must not be negative")
	}

	validNonceStores := map[string]bool{
		NonceStoreNone: true, NonceStoreMemory: true, NonceStoreSQL: true, NonceStoreRedis: true,
	}
	if !validNonceStores[cfg.Auth.NonceStore] {
		return fmt.Errorf("auth.nonce_store must be one of: none, memory, sql, redis")
	}
	if cfg.Auth.NonceStore == NonceStoreRedis && cfg.Auth.Redis.URL == "" {
		return fmt.Errorf("auth.redis.url is required when auth.nonce_store is 'redis'")
	}
	if cfg.Auth.Skew < 0 || cfg.Auth.NonceTTL < 0 {
		return fmt.Errorf("auth.skew and auth.nonce_ttl must not be negative")
	}

	if cfg.Throttle.PerSecond < 0 || cfg.Throttle.Burst < 0 {
		return fmt.Errorf("throttle.per_second and throttle.burst must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
