package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/actiongate/actiongate/internal/adapter/inbound/web"
	"github.com/actiongate/actiongate/internal/adapter/outbound/invoker"
	"github.com/actiongate/actiongate/internal/adapter/outbound/memory"
	"github.com/actiongate/actiongate/internal/adapter/outbound/sqlite"
	"github.com/actiongate/actiongate/internal/config"
	"github.com/actiongate/actiongate/internal/domain/entity"
	"github.com/actiongate/actiongate/internal/domain/identity"
	"github.com/actiongate/actiongate/internal/domain/policy"
	"github.com/actiongate/actiongate/internal/domain/webaction"
	"github.com/actiongate/actiongate/internal/port/outbound"
	"github.com/actiongate/actiongate/internal/service"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway server",
	Long: `Start the action gateway HTTP server.

The gateway serves anonymous web invocations under <api_prefix>/web/ and
forwards them to the configured invoker backend:

1. Loopback mode: actions are served by in-process handlers (development).
   This is the default.

2. HTTP mode: actions are executed by a remote invoker service.
   Configure invoker.mode: http and invoker.url in your config file.

Examples:
  # Start with config file settings
  actiongate start

  # Start with a specific config file
  actiongate --config /path/to/config.yaml start

  # Start in development mode
  actiongate start --dev`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load configuration (without validation, so CLI flags can override first)
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override dev mode from CLI flag
	if devMode {
		cfg.DevMode = true
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Signal context for graceful shutdown.
	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop() // Restore default: next Ctrl+C = immediate exit.
	}()

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug // DevMode always forces debug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", logLevel.String())

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("actiongate stopped")
	return nil
}

// run is the main orchestration function that wires all components together.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// ===== Stores =====
	var (
		entities     entity.EntityStore
		entityWriter entity.EntityWriter
		auth         identity.AuthStore
		authWriter   identity.AuthWriter
		pinger       func() error
	)

	switch cfg.Store.Backend {
	case "sqlite":
		store, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		defer func() { _ = store.Close() }()
		entities, entityWriter = store, store
		auth, authWriter = store, store
		pinger = store.Ping
		logger.Info("store backend: sqlite", "path", cfg.Store.Path)

	default:
		entityStore := memory.NewEntityStore()
		authStore := memory.NewAuthStore()
		entities, entityWriter = entityStore, entityStore
		auth, authWriter = authStore, authStore
		logger.Info("store backend: memory")
	}

	// ===== Seed entities and identities =====
	if cfg.Store.Seed != "" {
		seedService := service.NewSeedService(entityWriter, authWriter, logger)
		if err := seedService.LoadFile(ctx, cfg.Store.Seed); err != nil {
			return fmt.Errorf("failed to load seed file: %w", err)
		}
		logger.Info("seed applied", "file", cfg.Store.Seed)
	}

	// ===== Throttler =====
	throttler := memory.NewThrottlerWithConfig(cfg.ThrottleCleanupInterval(), cfg.ThrottleMaxTTL())
	throttler.StartCleanup(ctx)
	defer throttler.Stop()

	// ===== Invoker =====
	var actionInvoker outbound.Invoker
	switch cfg.Invoker.Mode {
	case "http":
		actionInvoker = invoker.NewHTTPClient(cfg.Invoker.URL,
			invoker.WithTimeout(cfg.InvokerTimeout()))
		logger.Info("invoker mode: http", "url", cfg.Invoker.URL, "timeout", cfg.InvokerTimeout())
	default:
		actionInvoker = invoker.NewLoopback()
		logger.Info("invoker mode: loopback")
	}

	// ===== Web action service =====
	directives := webaction.MainDirectives
	directives.EnforceExtension = cfg.Routes.EnforceExtension

	svcOpts := []service.WebActionOption{
		service.WithDirectives(directives),
		service.WithMaxBlockingWait(cfg.MaxBlockingWait()),
		service.WithDefaultRate(cfg.Throttle.DefaultRate),
	}

	// Admission rules are optional; without them every exported action is
	// admitted.
	if len(cfg.Rules) > 0 {
		rules := rulesFromConfig(cfg.Rules)
		policyService, err := service.NewPolicyService(rules, logger)
		if err != nil {
			return fmt.Errorf("failed to compile admission rules: %w", err)
		}
		svcOpts = append(svcOpts, service.WithAdmissionEngine(policyService))
		logger.Info("admission rules loaded", "rules", len(rules))
	}

	webService := service.NewWebActionService(entities, auth, throttler, actionInvoker, logger, svcOpts...)

	// ===== HTTP transport =====
	healthChecker := web.NewHealthChecker(throttler, pinger, Version)

	transportOpts := []web.Option{
		web.WithAddr(cfg.Server.HTTPAddr),
		web.WithAPIPrefix(cfg.Routes.APIPrefix),
		web.WithEntityLimit(cfg.Limits.EntitySize),
		web.WithBodyReadTimeout(cfg.BodyReadTimeout()),
		web.WithHealthChecker(healthChecker),
		web.WithThrottleSize(throttler.Size),
		web.WithLogger(logger),
	}

	if cfg.Server.TLSCert != "" && cfg.Server.TLSKey != "" {
		transportOpts = append(transportOpts, web.WithTLS(cfg.Server.TLSCert, cfg.Server.TLSKey))
	}

	if cfg.Tracing.Enabled {
		tp, err := web.NewTracerProvider(os.Stdout)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
		mp, err := web.NewMeterProvider(os.Stdout)
		if err != nil {
			return fmt.Errorf("failed to create meter provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mp.Shutdown(shutdownCtx)
		}()
		transportOpts = append(transportOpts, web.WithTracerProvider(tp), web.WithMeterProvider(mp))
		logger.Info("telemetry enabled", "exporter", "stdout")
	}

	logger.Info("actiongate starting",
		"version", Version,
		"dev_mode", cfg.DevMode,
		"http_addr", cfg.Server.HTTPAddr,
		"api_prefix", cfg.Routes.APIPrefix,
		"store", cfg.Store.Backend,
		"invoker", cfg.Invoker.Mode,
		"rules", len(cfg.Rules),
		"default_rate", cfg.Throttle.DefaultRate,
	)

	transport := web.NewTransport(webService, transportOpts...)
	return transport.Start(ctx)
}

// rulesFromConfig converts config rule entries to domain rules.
func rulesFromConfig(ruleConfigs []config.RuleConfig) []policy.Rule {
	now := time.Now().UTC()
	rules := make([]policy.Rule, len(ruleConfigs))
	for i, rc := range ruleConfigs {
		rules[i] = policy.Rule{
			ID:          fmt.Sprintf("config-rule-%d", i),
			Name:        rc.Name,
			Priority:    rc.Priority,
			ActionMatch: rc.Match,
			Condition:   rc.Condition,
			Effect:      policy.Effect(rc.Effect),
			CreatedAt:   now,
		}
	}
	return rules
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
