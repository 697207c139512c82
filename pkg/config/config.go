// Package config provides unified configuration for the EDemocracy backend.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (EDEMOCRACY_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// The signing secret has no default and no fallback: a process without one
// must not serve traffic, so Load fails outright when it is absent.
package config

import "time"

// Config holds all configuration for the backend.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port" env:"EDEMOCRACY_PORT"`                   // default: 5000
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"EDEMOCRACY_READ_TIMEOUT"`   // default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"EDEMOCRACY_WRITE_TIMEOUT"` // default: 30s
}

// AuthConfig holds signing secret and token lifetime settings.
type AuthConfig struct {
	// Secret is the symmetric signing key for both token codecs.
	// Required; an empty secret is a startup-fatal configuration error.
	Secret     string `yaml:"secret" env:"EDEMOCRACY_SECRET"`
	SecretFile string `yaml:"secret_file" env:"EDEMOCRACY_SECRET_FILE"`

	// SessionTTL bounds session token validity. Default: 1h.
	SessionTTL time.Duration `yaml:"session_ttl" env:"EDEMOCRACY_SESSION_TTL"`

	// PurposeTTL bounds purpose token validity. Default: 15m.
	PurposeTTL time.Duration `yaml:"purpose_ttl" env:"EDEMOCRACY_PURPOSE_TTL"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type" env:"EDEMOCRACY_STORAGE"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn" env:"EDEMOCRACY_DB_DSN"`
	DSNFile        string `yaml:"dsn_file" env:"EDEMOCRACY_DB_DSN_FILE"`
	MaxConns       int32  `yaml:"max_conns" env:"EDEMOCRACY_DB_MAX_CONNS"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"EDEMOCRACY_DB_MIGRATE"`   // default: false
}

// ObservabilityConfig holds monitoring settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"EDEMOCRACY_METRICS_ENABLED"` // default: true
	Path    string `yaml:"path" env:"EDEMOCRACY_METRICS_PATH"`       // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         5000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			SessionTTL: time.Hour,
			PurposeTTL: 15 * time.Minute,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
