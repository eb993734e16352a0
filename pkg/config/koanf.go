package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/starwars-api/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings maps environment variables to config paths. Unlisted
// variables are ignored.
var envMappings = map[string]string{
	"app_name":    "app.name",
	"app_version": "app.version",
	"environment": "app.environment",
	"debug":       "app.debug",

	"host": "server.host",
	"port": "server.port",

	"swapi_base_url":   "swapi.base_url",
	"swapi_timeout":    "swapi.timeout",
	"swapi_user_agent": "swapi.user_agent",

	"cache_enabled":          "cache.enabled",
	"cache_ttl":              "cache.ttl",
	"redis_url":              "cache.redis_url",
	"cache_warm_on_startup":  "cache.warm_on_startup",
	"cache_warm_concurrency": "cache.warm_concurrency",

	"jwt_secret_key":       "jwt.secret_key",
	"jwt_expiration_hours": "jwt.expiration_hours",

	"rate_limit_enabled":    "rate_limit.enabled",
	"rate_limit_requests":   "rate_limit.requests",
	"rate_limit_period":     "rate_limit.period",
	"rate_limit_per_minute": "rate_limit.per_minute",

	"cors_origins": "cors.origins",

	"log_level":  "logging.level",
	"log_pretty": "logging.pretty",

	"audit_max_events": "audit.max_events",
	"audit_retention":  "audit.retention",
}

// sliceConfigPaths are split on commas when given as a single string.
var sliceConfigPaths = []string{
	"cors.origins",
}

// Load reads defaults, then the config file (CONFIG_PATH or the first of
// DefaultConfigPaths that exists), then the environment, and validates
// the result. Precedence: env > file > defaults.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path; "" skips the file
// layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
