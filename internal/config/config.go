package config

import (
	"time"
)

// Config represents the complete application configuration. Values are
// merged from three layers: built-in defaults, the user's config file,
// and HANDLESCAN_* environment variables.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Store    StoreConfig    `mapstructure:"store"`
	Domains  DomainsConfig  `mapstructure:"domains"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Debug    DebugConfig    `mapstructure:"debug"`

	// Proxies are forwarded verbatim to the transport's rotator.
	Proxies []string `mapstructure:"proxies"`

	// Sets points at a YAML file with user-defined platform sets.
	Sets string `mapstructure:"sets"`
}

// EngineConfig tunes the scan engine and its shared HTTP transport.
type EngineConfig struct {
	// Timeout bounds each platform request.
	Timeout time.Duration `mapstructure:"timeout"`

	// Rate caps outbound requests per second across all platforms.
	// Zero disables the global cap; per-host limits still apply.
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`

	MaxConnsPerHost int `mapstructure:"max_conns_per_host"`
	MaxIdleConns    int `mapstructure:"max_idle_conns"`

	// Order groups results by "query" or by "platform".
	Order string `mapstructure:"order"`

	UserAgent string `mapstructure:"user_agent"`
}

// SessionsConfig controls reuse of signup-session artifacts across runs.
type SessionsConfig struct {
	Persist bool          `mapstructure:"persist"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// DomainsConfig controls the RDAP preflight applied to email domains.
type DomainsConfig struct {
	Verify  bool          `mapstructure:"verify"`
	Timeout time.Duration `mapstructure:"timeout"`

	// Servers overrides the RDAP bootstrap with explicit endpoints.
	Servers []string `mapstructure:"servers"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
