package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/scope"
)

// EnvPrefix prefixes every environment variable read by this package
const EnvPrefix = "DESIGNACIONES_"

// FileEnv names the optional YAML configuration file
const FileEnv = EnvPrefix + "CONFIG"

// Auth modes
const (
	AuthModeOIDC   = "oidc"
	AuthModeHeader = "header"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Auth          AuthConfig          `yaml:"auth"`
	Scope         ScopeConfig         `yaml:"scope"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Stats         StatsConfig         `yaml:"stats"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig selects the document store backend
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds the scoped read cache settings. RedisURL adds a shared layer.
type CacheConfig struct {
	MaxEntries     int           `yaml:"max_entries"`
	TTL            time.Duration `yaml:"ttl"`
	RedisURL       string        `yaml:"redis_url"`
	RedisNamespace string        `yaml:"redis_namespace"`
}

// AuthConfig selects how callers are identified
type AuthConfig struct {
	Mode         string `yaml:"mode"`
	OIDCIssuer   string `yaml:"oidc_issuer"`
	OIDCClientID string `yaml:"oidc_client_id"`
}

// ScopeConfig holds active delegate cookie settings
type ScopeConfig struct {
	CookieSecure bool   `yaml:"cookie_secure"`
	CookieDomain string `yaml:"cookie_domain"`
}

// RateLimitConfig holds per-caller request limits
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
	BurstSize         int           `yaml:"burst_size"`
}

// StatsConfig schedules the business gauge refresh
type StatsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	pool := docstore.DefaultPoolConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			DSN:             "file:designaciones.db?_foreign_keys=on&_busy_timeout=5000",
			MaxOpenConns:    pool.MaxOpenConns,
			MaxIdleConns:    pool.MaxIdleConns,
			ConnMaxLifetime: pool.ConnMaxLifetime,
		},
		Cache: CacheConfig{
			MaxEntries:     10000,
			TTL:            time.Minute,
			RedisNamespace: "designaciones",
		},
		Auth: AuthConfig{
			Mode: AuthModeOIDC,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: 600,
			Window:            time.Minute,
			BurstSize:         60,
		},
		Stats: StatsConfig{
			Enabled:  true,
			Schedule: "@every 5m",
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "designaciones",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig loads the defaults, then the YAML file named by DESIGNACIONES_CONFIG
// if set, then environment variables, and validates the result
func LoadConfig() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is LoadConfig with an explicit file path. An empty path skips the
// file layer. Environment variables always win over the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides c with any DESIGNACIONES_* variable that is set
func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("HOST", s.Host)
	s.Port = getEnv("PORT", s.Port)
	s.ReadTimeout = getEnvDuration("READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.MaxBodyBytes = getEnvInt64("MAX_BODY_BYTES", s.MaxBodyBytes)
	s.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", s.AllowedOrigins)
	s.HealthPort = getEnv("HEALTH_PORT", s.HealthPort)

	d := &c.Database
	d.Driver = getEnv("DB_DRIVER", d.Driver)
	d.DSN = getEnv("DB_DSN", d.DSN)
	d.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", d.MaxOpenConns)
	d.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", d.MaxIdleConns)
	d.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", d.ConnMaxLifetime)

	ca := &c.Cache
	ca.MaxEntries = getEnvInt("CACHE_MAX_ENTRIES", ca.MaxEntries)
	ca.TTL = getEnvDuration("CACHE_TTL", ca.TTL)
	ca.RedisURL = getEnv("REDIS_URL", ca.RedisURL)
	ca.RedisNamespace = getEnv("REDIS_NAMESPACE", ca.RedisNamespace)

	a := &c.Auth
	a.Mode = getEnv("AUTH_MODE", a.Mode)
	a.OIDCIssuer = getEnv("OIDC_ISSUER", a.OIDCIssuer)
	a.OIDCClientID = getEnv("OIDC_CLIENT_ID", a.OIDCClientID)

	c.Scope.CookieSecure = getEnvBool("COOKIE_SECURE", c.Scope.CookieSecure)
	c.Scope.CookieDomain = getEnv("COOKIE_DOMAIN", c.Scope.CookieDomain)

	rl := &c.RateLimit
	rl.Enabled = getEnvBool("RATE_LIMIT_ENABLED", rl.Enabled)
	rl.RequestsPerWindow = getEnvInt("RATE_LIMIT_REQUESTS", rl.RequestsPerWindow)
	rl.Window = getEnvDuration("RATE_LIMIT_WINDOW", rl.Window)
	rl.BurstSize = getEnvInt("RATE_LIMIT_BURST", rl.BurstSize)

	c.Stats.Enabled = getEnvBool("STATS_ENABLED", c.Stats.Enabled)
	c.Stats.Schedule = getEnv("STATS_SCHEDULE", c.Stats.Schedule)

	o := &c.Observability
	o.LogLevel = getEnv("LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("OTEL_INSECURE", o.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Server.HealthPort == "" {
		return errors.New("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return errors.New("server port and health port must be different")
	}

	// Validate database config
	if _, err := docstore.DialectFor(c.Database.Driver); err != nil {
		return err
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN is required")
	}

	if c.Cache.TTL <= 0 {
		return errors.New("cache TTL must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return errors.New("cache max entries must be positive")
	}

	switch c.Auth.Mode {
	case AuthModeOIDC:
		if c.Auth.OIDCIssuer == "" || c.Auth.OIDCClientID == "" {
			return errors.New("OIDC issuer and client id are required for oidc auth")
		}
	case AuthModeHeader:
	default:
		return fmt.Errorf("invalid auth mode: %s (must be %s or %s)", c.Auth.Mode, AuthModeOIDC, AuthModeHeader)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate limit requests and window must be positive when enabled")
	}

	if c.Stats.Enabled && c.Stats.Schedule == "" {
		return errors.New("stats schedule is required when stats are enabled")
	}

	if _, err := observability.ParseLevel(c.Observability.LogLevel); err != nil {
		return err
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return errors.New("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return errors.New("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// Pool returns the connection pool settings for docstore.Open
func (d DatabaseConfig) Pool() docstore.PoolConfig {
	pool := docstore.DefaultPoolConfig()
	pool.MaxOpenConns = d.MaxOpenConns
	pool.MaxIdleConns = d.MaxIdleConns
	pool.ConnMaxLifetime = d.ConnMaxLifetime
	return pool
}

// Cookie returns the active delegate cookie options
func (s ScopeConfig) Cookie() scope.CookieOptions {
	return scope.CookieOptions{Secure: s.CookieSecure, Domain: s.CookieDomain}
}

// OTel returns the OpenTelemetry exporter settings
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
