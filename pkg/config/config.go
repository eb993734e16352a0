// Package config loads the service configuration in three layers:
// built-in defaults, an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gusttavosants/StarWars/pkg/validation"
)

// DefaultJWTSecret is the development placeholder; it is rejected in
// production.
const DefaultJWTSecret = "your-secret-key-change-in-production"

// Config is the complete service configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	SWAPI     SWAPIConfig     `koanf:"swapi"`
	Cache     CacheConfig     `koanf:"cache"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Logging   LoggingConfig   `koanf:"logging"`
	Audit     AuditConfig     `koanf:"audit"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Name        string `koanf:"name" validate:"required"`
	Version     string `koanf:"version" validate:"required"`
	Environment string `koanf:"environment" validate:"oneof=development staging production test"`
	Debug       bool   `koanf:"debug"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// SWAPIConfig configures the upstream client.
type SWAPIConfig struct {
	BaseURL        string `koanf:"base_url" validate:"required,url"`
	UserAgent      string `koanf:"user_agent" validate:"required"`
	TimeoutSeconds int    `koanf:"timeout" validate:"gte=1"`
}

// CacheConfig configures the cache backend and warming.
type CacheConfig struct {
	Enabled         bool   `koanf:"enabled"`
	TTLSeconds      int    `koanf:"ttl" validate:"gte=1"`
	RedisURL        string `koanf:"redis_url"`
	WarmOnStartup   bool   `koanf:"warm_on_startup"`
	WarmConcurrency int    `koanf:"warm_concurrency" validate:"gte=1,lte=32"`
}

// JWTConfig configures token issuing and verification.
type JWTConfig struct {
	SecretKey       string `koanf:"secret_key" validate:"required"`
	ExpirationHours int    `koanf:"expiration_hours" validate:"gte=1"`
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	Enabled       bool `koanf:"enabled"`
	Requests      int  `koanf:"requests" validate:"gte=1"`
	PeriodSeconds int  `koanf:"period" validate:"gte=1"`
	PerMinute     int  `koanf:"per_minute" validate:"gte=1"`
}

// CORSConfig lists the allowed browser origins.
type CORSConfig struct {
	Origins []string `koanf:"origins"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error critical"`
	Pretty bool   `koanf:"pretty"`
}

// AuditConfig bounds the in-memory audit and analytics logs.
type AuditConfig struct {
	MaxEvents int           `koanf:"max_events" validate:"gte=100"`
	Retention time.Duration `koanf:"retention" validate:"gt=0"`
}

// Default returns the built-in configuration, before file and environment
// overrides.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "Star Wars API",
			Version:     "1.0.0",
			Environment: "development",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		SWAPI: SWAPIConfig{
			BaseURL:        "https://swapi.dev/api",
			UserAgent:      "StarWarsAPI/1.0.0",
			TimeoutSeconds: 10,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTLSeconds:      3600,
			WarmConcurrency: 4,
		},
		JWT: JWTConfig{
			SecretKey:       DefaultJWTSecret,
			ExpirationHours: 24,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Requests:      100,
			PeriodSeconds: 3600,
			PerMinute:     10,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Audit: AuditConfig{
			MaxEvents: 10000,
			Retention: 7 * 24 * time.Hour,
		},
	}
}

// Validate checks struct rules and cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.IsProduction() && c.JWT.SecretKey == DefaultJWTSecret {
		return fmt.Errorf("jwt.secret_key must be changed in production")
	}
	return nil
}

// normalize lowercases enumerations read from the environment.
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.App.Environment = strings.ToLower(c.App.Environment)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool { return c.App.Environment == "production" }

// IsDevelopment reports whether the service runs in development.
func (c *Config) IsDevelopment() bool { return c.App.Environment == "development" }

// Addr is the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// Timeout is the upstream request timeout.
func (s SWAPIConfig) Timeout() time.Duration { return time.Duration(s.TimeoutSeconds) * time.Second }

// TTL is the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

// Expiration is the issued token lifetime.
func (j JWTConfig) Expiration() time.Duration { return time.Duration(j.ExpirationHours) * time.Hour }

// Period is the long rate limit window.
func (r RateLimitConfig) Period() time.Duration { return time.Duration(r.PeriodSeconds) * time.Second }
