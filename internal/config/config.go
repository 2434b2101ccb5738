// Package config loads phoenix settings from defaults, an optional YAML file,
// PHOENIX_* environment variables and command-line flags, via viper.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is prepended to every environment variable override,
// e.g. PHOENIX_AUTH_JWT_SECRET.
const EnvPrefix = "PHOENIX"

// Config is the fully resolved configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	APIKey    APIKeyConfig    `yaml:"apikey" mapstructure:"apikey"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORS            CORSConfig    `yaml:"cors" mapstructure:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins" mapstructure:"origins"`
}

// DatabaseConfig selects the credential and measurement store.
type DatabaseConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"`
	DSN          string `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
}

// AuthConfig controls session tokens, password hashing and the API-key
// filter.
type AuthConfig struct {
	JWTSecret            string   `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	JWTExpirationMS      int64    `yaml:"jwt_expiration_ms" mapstructure:"jwt_expiration_ms"`
	BcryptCost           int      `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
	APIKeyHeader         string   `yaml:"api_key_header" mapstructure:"api_key_header"`
	APIKeyExemptPrefixes []string `yaml:"api_key_exempt_prefixes" mapstructure:"api_key_exempt_prefixes"`
}

// APIKeyConfig controls issued API keys.
type APIKeyConfig struct {
	ExpirationOffsetMS int64 `yaml:"expiration_offset_ms" mapstructure:"expiration_offset_ms"`
}

// RateLimitConfig limits requests to the public auth endpoints per client IP.
type RateLimitConfig struct {
	Enabled               bool `yaml:"enabled" mapstructure:"enabled"`
	AuthRequestsPerMinute int  `yaml:"auth_requests_per_minute" mapstructure:"auth_requests_per_minute"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     1 << 20,
			CORS:            CORSConfig{Origins: []string{"*"}},
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			MaxOpenConns: 10,
		},
		Auth: AuthConfig{
			JWTExpirationMS:      86400000,
			BcryptCost:           bcrypt.DefaultCost,
			APIKeyHeader:         "X-API-KEY",
			APIKeyExemptPrefixes: []string{"/api/auth/", "/api/admin/"},
		},
		APIKey: APIKeyConfig{
			ExpirationOffsetMS: 2592000000,
		},
		RateLimit: RateLimitConfig{
			Enabled:               true,
			AuthRequestsPerMinute: 20,
		},
		Metrics: MetricsConfig{Enabled: true},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every key with its default on v and enables
// PHOENIX_* environment overrides. Keys must be known to viper for
// AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	v.SetDefault("server.cors.origins", d.Server.CORS.Origins)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.jwt_expiration_ms", d.Auth.JWTExpirationMS)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)
	v.SetDefault("auth.api_key_header", d.Auth.APIKeyHeader)
	v.SetDefault("auth.api_key_exempt_prefixes", d.Auth.APIKeyExemptPrefixes)
	v.SetDefault("apikey.expiration_offset_ms", d.APIKey.ExpirationOffsetMS)
	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.auth_requests_per_minute", d.RateLimit.AuthRequestsPerMinute)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, errors.New("server.max_body_size must be positive"))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be one of sqlite, postgres, mysql, got %q", c.Database.Driver))
	}
	if c.Database.Driver != "sqlite" && c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver))
	}
	if c.Auth.JWTExpirationMS <= 0 {
		errs = append(errs, errors.New("auth.jwt_expiration_ms must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if strings.TrimSpace(c.Auth.APIKeyHeader) == "" {
		errs = append(errs, errors.New("auth.api_key_header must not be empty"))
	}
	if c.APIKey.ExpirationOffsetMS <= 0 {
		errs = append(errs, errors.New("apikey.expiration_offset_ms must be positive"))
	}
	if c.RateLimit.Enabled && c.RateLimit.AuthRequestsPerMinute <= 0 {
		errs = append(errs, errors.New("rate_limit.auth_requests_per_minute must be positive when rate limiting is enabled"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// TokenLifetime returns the session token lifetime.
func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.Auth.JWTExpirationMS) * time.Millisecond
}

// APIKeyLifetime returns the default API key lifetime.
func (c *Config) APIKeyLifetime() time.Duration {
	return time.Duration(c.APIKey.ExpirationOffsetMS) * time.Millisecond
}
