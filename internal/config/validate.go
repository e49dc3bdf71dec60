package config

import (
	"fmt"
	"net/url"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate checks the configuration for errors.
// Returns nil if valid, or ValidationErrors if invalid.
func Validate(cfg Config) error {
	var errs ValidationErrors

	// DATABASE_URL is required
	if cfg.DatabaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "DATABASE_URL",
			Message: "required",
		})
	}

	// PUSH_SERVER_KEY is required: without it every dispatch is rejected
	if cfg.PushServerKey == "" {
		errs = append(errs, ValidationError{
			Field:   "PUSH_SERVER_KEY",
			Message: "required",
		})
	}

	// PUSH_ENDPOINT must be an absolute http(s) URL
	if cfg.PushEndpoint != "" {
		if u, err := url.Parse(cfg.PushEndpoint); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{
				Field:   "PUSH_ENDPOINT",
				Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", cfg.PushEndpoint),
			})
		}
	}

	// CYCLE_INTERVAL must be a valid positive duration
	if cfg.CycleIntervalStr != "" {
		d, err := time.ParseDuration(cfg.CycleIntervalStr)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "CYCLE_INTERVAL",
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		} else if d <= 0 {
			errs = append(errs, ValidationError{
				Field:   "CYCLE_INTERVAL",
				Message: "must be positive",
			})
		}
	}

	// JANITOR_RETENTION must be positive when the janitor is on
	if cfg.JanitorEnabled && cfg.JanitorRetention <= 0 {
		errs = append(errs, ValidationError{
			Field:   "JANITOR_RETENTION",
			Message: "must be a positive duration",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
