package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers gateway-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// duration: validates a Go duration string like "60s" or "5m"
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateDuration accepts empty (defaulted elsewhere) or a positive
// time.ParseDuration string.
func validateDuration(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	d, err := time.ParseDuration(s)
	return err == nil && d > 0
}

// Validate validates the Config using struct tags and cross-field rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateDurations(); err != nil {
		return err
	}

	// Cross-field validation: sqlite backend needs a database path
	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		return errors.New("store: backend 'sqlite' requires path")
	}

	// Cross-field validation: http invoker needs a target URL
	if c.Invoker.Mode == "http" && c.Invoker.URL == "" {
		return errors.New("invoker: mode 'http' requires url")
	}

	// Cross-field validation: TLS needs both halves of the pair
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return errors.New("server: tls_cert and tls_key must be set together")
	}

	// API prefix must be an absolute path
	if !strings.HasPrefix(c.Routes.APIPrefix, "/") {
		return errors.New("routes: api_prefix must start with '/'")
	}

	return nil
}

// validateDurations checks every duration-shaped field in one place.
// Struct tags cannot express "parses as a duration" on plain strings
// spread across nested structs without repeating the custom tag, so the
// fields are enumerated here instead.
func (c *Config) validateDurations() error {
	fields := []struct {
		name  string
		value string
	}{
		{"limits.max_blocking_wait", c.Limits.MaxBlockingWait},
		{"limits.body_read_timeout", c.Limits.BodyReadTimeout},
		{"throttle.cleanup_interval", c.Throttle.CleanupInterval},
		{"throttle.max_ttl", c.Throttle.MaxTTL},
		{"invoker.timeout", c.Invoker.Timeout},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", f.name, f.value)
		}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration like '60s'", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
