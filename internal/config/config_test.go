package config

import (
	"testing"
	"time"
)

func TestSetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.Server.LogLevel)
	}
	if cfg.Routes.APIPrefix != "/api/v1" {
		t.Errorf("APIPrefix = %q", cfg.Routes.APIPrefix)
	}
	if cfg.Limits.MaxBlockingWait != "60s" || cfg.Limits.BodyReadTimeout != "30s" {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if cfg.Limits.EntitySize != 1<<20 {
		t.Errorf("EntitySize = %d", cfg.Limits.EntitySize)
	}
	if cfg.Throttle.DefaultRate != 120 || cfg.Throttle.CleanupInterval != "5m" || cfg.Throttle.MaxTTL != "1h" {
		t.Errorf("throttle = %+v", cfg.Throttle)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Backend = %q", cfg.Store.Backend)
	}
	if cfg.Invoker.Mode != "loopback" || cfg.Invoker.Timeout != "60s" {
		t.Errorf("invoker = %+v", cfg.Invoker)
	}
}

func TestSetDefaults_PreservesExplicit(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Server:   ServerConfig{HTTPAddr: "0.0.0.0:9090", LogLevel: "warn"},
		Store:    StoreConfig{Backend: "sqlite", Path: "/tmp/gw.db"},
		Throttle: ThrottleConfig{DefaultRate: 10},
	}
	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != "0.0.0.0:9090" || cfg.Server.LogLevel != "warn" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Backend = %q", cfg.Store.Backend)
	}
	if cfg.Throttle.DefaultRate != 10 {
		t.Errorf("DefaultRate = %d", cfg.Throttle.DefaultRate)
	}
}

func TestSetDevDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{DevMode: true}
	cfg.SetDefaults()
	cfg.SetDevDefaults()
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}

	// An explicit level survives dev mode.
	cfg = Config{DevMode: true, Server: ServerConfig{LogLevel: "error"}}
	cfg.SetDefaults()
	cfg.SetDevDefaults()
	if cfg.Server.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.Server.LogLevel)
	}

	// No dev mode, no override.
	cfg = Config{}
	cfg.SetDefaults()
	cfg.SetDevDefaults()
	if cfg.Server.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
}

func TestDurationGetters(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.MaxBlockingWait() != 60*time.Second {
		t.Errorf("MaxBlockingWait = %v", cfg.MaxBlockingWait())
	}
	if cfg.BodyReadTimeout() != 30*time.Second {
		t.Errorf("BodyReadTimeout = %v", cfg.BodyReadTimeout())
	}
	if cfg.ThrottleCleanupInterval() != 5*time.Minute {
		t.Errorf("ThrottleCleanupInterval = %v", cfg.ThrottleCleanupInterval())
	}
	if cfg.ThrottleMaxTTL() != time.Hour {
		t.Errorf("ThrottleMaxTTL = %v", cfg.ThrottleMaxTTL())
	}
	if cfg.InvokerTimeout() != 60*time.Second {
		t.Errorf("InvokerTimeout = %v", cfg.InvokerTimeout())
	}

	cfg.Limits.MaxBlockingWait = "250ms"
	if cfg.MaxBlockingWait() != 250*time.Millisecond {
		t.Errorf("MaxBlockingWait = %v", cfg.MaxBlockingWait())
	}

	// Unparseable strings fall back to the documented default.
	cfg.Limits.MaxBlockingWait = "not-a-duration"
	if cfg.MaxBlockingWait() != 60*time.Second {
		t.Errorf("fallback MaxBlockingWait = %v", cfg.MaxBlockingWait())
	}
}
