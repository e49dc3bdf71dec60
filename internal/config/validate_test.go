package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:      "postgres://localhost/tdsched",
		PushServerKey:    "key",
		PushEndpoint:     "https://fcm.googleapis.com/fcm/send",
		CycleIntervalStr: "60s",
		JanitorRetention: 720 * time.Hour,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error should name DATABASE_URL, got %q", err.Error())
	}
}

func TestValidate_MissingPushServerKey(t *testing.T) {
	cfg := validConfig()
	cfg.PushServerKey = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "PUSH_SERVER_KEY") {
		t.Errorf("error should name PUSH_SERVER_KEY, got %q", err.Error())
	}
}

func TestValidate_BadPushEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.PushEndpoint = "fcm.googleapis.com/fcm/send"

	if err := Validate(cfg); err == nil {
		t.Error("expected error for scheme-less endpoint, got nil")
	}
}

func TestValidate_BadCycleInterval(t *testing.T) {
	cfg := validConfig()
	cfg.CycleIntervalStr = "every minute"

	if err := Validate(cfg); err == nil {
		t.Error("expected error for unparseable interval, got nil")
	}
}

func TestValidate_JanitorRetention(t *testing.T) {
	cfg := validConfig()
	cfg.JanitorEnabled = true
	cfg.JanitorRetention = 0

	if err := Validate(cfg); err == nil {
		t.Error("expected error for zero retention with janitor enabled, got nil")
	}

	cfg.JanitorEnabled = false
	if err := Validate(cfg); err != nil {
		t.Errorf("retention should not be checked with janitor disabled: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(Config{})
	if err == nil {
		t.Fatal("expected errors, got nil")
	}

	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) < 2 {
		t.Errorf("expected at least 2 errors for empty config, got %d", len(verrs))
	}
	if !strings.Contains(err.Error(), "validation errors:") {
		t.Errorf("aggregate message should count errors, got %q", err.Error())
	}
}
