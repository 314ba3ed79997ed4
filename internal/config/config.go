// Package config provides the configuration schema for the gateway.
package config

import (
	"time"
)

// Config is the top-level configuration for the gateway.
type Config struct {
	// Server configures the HTTP server listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Routes configures the web API route shape.
	Routes RoutesConfig `yaml:"routes" mapstructure:"routes"`

	// Limits bounds request size and invocation wait.
	Limits LimitsConfig `yaml:"limits" mapstructure:"limits"`

	// Throttle configures activation-rate enforcement.
	Throttle ThrottleConfig `yaml:"throttle" mapstructure:"throttle"`

	// Store configures the entity and identity store backend.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Invoker configures the action execution backend.
	Invoker InvokerConfig `yaml:"invoker" mapstructure:"invoker"`

	// Rules are the optional admission rules.
	// When empty, every exported action is admitted.
	Rules []RuleConfig `yaml:"rules" mapstructure:"rules" validate:"omitempty,dive"`

	// Tracing configures request tracing output.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// DevMode enables development features (verbose logging, loopback
	// invoker defaults).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g., "127.0.0.1:8080").
	// Defaults to "127.0.0.1:8080" (localhost only) if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// TLSCert and TLSKey enable TLS when both are set.
	TLSCert string `yaml:"tls_cert" mapstructure:"tls_cert"`
	TLSKey  string `yaml:"tls_key" mapstructure:"tls_key"`
}

// RoutesConfig configures the web API route shape.
type RoutesConfig struct {
	// APIPrefix is the path ahead of /web/ (default "/api/v1").
	APIPrefix string `yaml:"api_prefix" mapstructure:"api_prefix"`

	// EnforceExtension requires an explicit media extension on every
	// request; without one the request fails 406 instead of defaulting
	// to .http.
	EnforceExtension bool `yaml:"enforce_extension" mapstructure:"enforce_extension"`
}

// LimitsConfig bounds request size and invocation wait.
type LimitsConfig struct {
	// MaxBlockingWait is the bound on a blocking invocation (e.g., "60s").
	// Defaults to "60s".
	MaxBlockingWait string `yaml:"max_blocking_wait" mapstructure:"max_blocking_wait" validate:"omitempty"`

	// EntitySize is the maximum request entity size in bytes.
	// Defaults to 1048576 (1MB).
	EntitySize int64 `yaml:"entity_size" mapstructure:"entity_size" validate:"omitempty,min=1"`

	// BodyReadTimeout bounds reading a request body (e.g., "30s").
	// Defaults to "30s".
	BodyReadTimeout string `yaml:"body_read_timeout" mapstructure:"body_read_timeout" validate:"omitempty"`
}

// ThrottleConfig configures activation-rate enforcement.
type ThrottleConfig struct {
	// DefaultRate is the activations-per-minute limit for identities
	// without an explicit quota. Defaults to 120.
	DefaultRate int `yaml:"default_rate" mapstructure:"default_rate" validate:"omitempty,min=1"`

	// CleanupInterval is how often expired throttle entries are removed
	// (e.g., "5m"). Defaults to "5m".
	CleanupInterval string `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"omitempty"`

	// MaxTTL is the maximum age of a throttle entry before removal
	// (e.g., "1h"). Defaults to "1h".
	MaxTTL string `yaml:"max_ttl" mapstructure:"max_ttl" validate:"omitempty"`
}

// StoreConfig configures the entity and identity store backend.
type StoreConfig struct {
	// Backend selects the store implementation.
	// Valid values: "memory", "sqlite". Defaults to "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory sqlite"`

	// Path is the SQLite database path. Required for the sqlite backend.
	Path string `yaml:"path" mapstructure:"path"`

	// Seed is an optional YAML document of identities, packages, and
	// actions applied at startup.
	Seed string `yaml:"seed" mapstructure:"seed"`
}

// InvokerConfig configures the action execution backend.
type InvokerConfig struct {
	// Mode selects the invoker implementation.
	// Valid values: "loopback", "http". Defaults to "loopback".
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=loopback http"`

	// URL is the invoker base URL. Required for the http mode.
	URL string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	// Timeout is the HTTP client timeout toward the invoker (e.g., "60s").
	// Defaults to "60s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty"`
}

// RuleConfig defines a single admission rule.
type RuleConfig struct {
	// Name is a human-readable identifier for this rule.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// Match is a glob pattern against namespace/package/action.
	Match string `yaml:"match" mapstructure:"match" validate:"required"`

	// Condition is an optional CEL expression; empty always applies.
	Condition string `yaml:"condition" mapstructure:"condition"`

	// Effect is what to do when the rule matches.
	Effect string `yaml:"effect" mapstructure:"effect" validate:"required,oneof=allow deny"`

	// Priority determines evaluation order (higher first).
	Priority int `yaml:"priority" mapstructure:"priority"`
}

// TracingConfig configures OpenTelemetry output.
type TracingConfig struct {
	// Enabled turns span and metric emission on. Both go to stdout.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	// Bind to localhost only unless explicitly widened.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Routes.APIPrefix == "" {
		c.Routes.APIPrefix = "/api/v1"
	}

	if c.Limits.MaxBlockingWait == "" {
		c.Limits.MaxBlockingWait = "60s"
	}
	if c.Limits.EntitySize == 0 {
		c.Limits.EntitySize = 1 << 20
	}
	if c.Limits.BodyReadTimeout == "" {
		c.Limits.BodyReadTimeout = "30s"
	}

	if c.Throttle.DefaultRate == 0 {
		c.Throttle.DefaultRate = 120
	}
	if c.Throttle.CleanupInterval == "" {
		c.Throttle.CleanupInterval = "5m"
	}
	if c.Throttle.MaxTTL == "" {
		c.Throttle.MaxTTL = "1h"
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}

	if c.Invoker.Mode == "" {
		c.Invoker.Mode = "loopback"
	}
	if c.Invoker.Timeout == "" {
		c.Invoker.Timeout = "60s"
	}
}

// SetDevDefaults applies permissive defaults for development mode.
// Applied BEFORE validation so required fields are satisfied.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.Server.LogLevel == "info" {
		c.Server.LogLevel = "debug"
	}
}

// durationOr parses s as a duration, falling back to def on any problem.
// Validation reports bad durations before this runs.
func durationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// MaxBlockingWait returns the parsed blocking-invocation bound.
func (c *Config) MaxBlockingWait() time.Duration {
	return durationOr(c.Limits.MaxBlockingWait, 60*time.Second)
}

// BodyReadTimeout returns the parsed body read bound.
func (c *Config) BodyReadTimeout() time.Duration {
	return durationOr(c.Limits.BodyReadTimeout, 30*time.Second)
}

// ThrottleCleanupInterval returns the parsed throttle cleanup interval.
func (c *Config) ThrottleCleanupInterval() time.Duration {
	return durationOr(c.Throttle.CleanupInterval, 5*time.Minute)
}

// ThrottleMaxTTL returns the parsed throttle entry TTL.
func (c *Config) ThrottleMaxTTL() time.Duration {
	return durationOr(c.Throttle.MaxTTL, time.Hour)
}

// InvokerTimeout returns the parsed invoker client timeout.
func (c *Config) InvokerTimeout() time.Duration {
	return durationOr(c.Invoker.Timeout, 60*time.Second)
}
