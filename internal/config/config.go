package config

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Config holds all configuration for the tdsched application.
// Values are loaded from environment variables; see printUsage() for the full list.
type Config struct {
	DatabaseURL string `json:"database_url"`
	RedisAddr   string `json:"redis_addr,omitempty"`
	HTTPAddr    string `json:"http_addr"`

	PushEndpoint  string `json:"push_endpoint"`
	PushServerKey string `json:"push_server_key"`

	PushTimeout    time.Duration `json:"-"`
	PushTimeoutStr string        `json:"push_timeout"`

	DefaultTopic string `json:"default_topic"`

	CycleInterval    time.Duration `json:"-"`
	CycleIntervalStr string        `json:"cycle_interval"`

	HistoryPageLimit int `json:"history_page_limit"`

	DBOpTimeout    time.Duration `json:"-"`
	DBOpTimeoutStr string        `json:"db_op_timeout"`

	DBMaxOpenConns       int           `json:"db_max_open_conns"`
	DBMaxIdleConns       int           `json:"db_max_idle_conns"`
	DBConnMaxLifetime    time.Duration `json:"-"`
	DBConnMaxLifetimeStr string        `json:"db_conn_max_lifetime"`
	DBConnMaxIdleTime    time.Duration `json:"-"`
	DBConnMaxIdleTimeStr string        `json:"db_conn_max_idle_time"`

	HTTPShutdownTimeout    time.Duration `json:"-"`
	HTTPShutdownTimeoutStr string        `json:"http_shutdown_timeout"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path"`
	MetricsAddr    string `json:"metrics_addr"`

	JanitorEnabled      bool          `json:"janitor_enabled"`
	JanitorInterval     time.Duration `json:"-"`
	JanitorIntervalStr  string        `json:"janitor_interval"`
	JanitorRetention    time.Duration `json:"-"`
	JanitorRetentionStr string        `json:"janitor_retention"`
	JanitorBatchSize    int           `json:"janitor_batch_size"`

	// CircuitBreakerThreshold: 0 disables the circuit breaker.
	CircuitBreakerThreshold   int           `json:"circuit_breaker_threshold"`
	CircuitBreakerCooldown    time.Duration `json:"-"`
	CircuitBreakerCooldownStr string        `json:"circuit_breaker_cooldown"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		PushEndpoint:           os.Getenv("PUSH_ENDPOINT"),
		PushServerKey:          os.Getenv("PUSH_SERVER_KEY"),
		PushTimeoutStr:         os.Getenv("PUSH_TIMEOUT"),
		DefaultTopic:           os.Getenv("DEFAULT_TOPIC"),
		CycleIntervalStr:       os.Getenv("CYCLE_INTERVAL"),
		DBOpTimeoutStr:         os.Getenv("DB_OP_TIMEOUT"),
		DBConnMaxLifetimeStr:   os.Getenv("DB_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTimeStr:   os.Getenv("DB_CONN_MAX_IDLE_TIME"),
		HTTPShutdownTimeoutStr: os.Getenv("HTTP_SHUTDOWN_TIMEOUT"),
		MetricsEnabled:         os.Getenv("METRICS_ENABLED") == "true",
		MetricsPath:            os.Getenv("METRICS_PATH"),
		MetricsAddr:            os.Getenv("METRICS_ADDR"),
		JanitorEnabled:         os.Getenv("JANITOR_ENABLED") == "true",
		JanitorIntervalStr:     os.Getenv("JANITOR_INTERVAL"),
		JanitorRetentionStr:    os.Getenv("JANITOR_RETENTION"),
	}

	if limitStr := os.Getenv("HISTORY_PAGE_LIMIT"); limitStr != "" {
		if n, err := parseInt(limitStr); err == nil && n > 0 {
			cfg.HistoryPageLimit = n
		} else {
			log.Printf("config: invalid HISTORY_PAGE_LIMIT %q (must be a positive integer), using default 100", limitStr)
		}
	}
	if cfg.HistoryPageLimit == 0 {
		cfg.HistoryPageLimit = 100
	}

	if batchStr := os.Getenv("JANITOR_BATCH_SIZE"); batchStr != "" {
		if batch, err := parseInt(batchStr); err == nil && batch > 0 {
			cfg.JanitorBatchSize = batch
		}
	}
	if cfg.JanitorBatchSize == 0 {
		cfg.JanitorBatchSize = 500
	}

	if cbThreshStr := os.Getenv("CIRCUIT_BREAKER_THRESHOLD"); cbThreshStr != "" {
		if n, err := parseInt(cbThreshStr); err == nil {
			cfg.CircuitBreakerThreshold = n
		} else {
			log.Printf("config: invalid CIRCUIT_BREAKER_THRESHOLD %q, breaker stays disabled", cbThreshStr)
		}
	}

	cfg.CircuitBreakerCooldownStr = os.Getenv("CIRCUIT_BREAKER_COOLDOWN")

	if maxOpenStr := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpenStr != "" {
		if n, err := parseInt(maxOpenStr); err == nil && n > 0 {
			cfg.DBMaxOpenConns = n
		}
	}
	if cfg.DBMaxOpenConns == 0 {
		cfg.DBMaxOpenConns = 25
	}

	if maxIdleStr := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdleStr != "" {
		if n, err := parseInt(maxIdleStr); err == nil && n > 0 {
			cfg.DBMaxIdleConns = n
		}
	}
	if cfg.DBMaxIdleConns == 0 {
		cfg.DBMaxIdleConns = 5
	}

	// Support Railway's PORT variable as fallback for HTTP_ADDR.
	if cfg.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":8080"
		}
	}
	if cfg.PushEndpoint == "" {
		cfg.PushEndpoint = "https://fcm.googleapis.com/fcm/send"
	}
	if cfg.PushTimeoutStr == "" {
		cfg.PushTimeoutStr = "10s"
	}
	if cfg.DefaultTopic == "" {
		cfg.DefaultTopic = "truth-dare-all"
	}
	if cfg.CycleIntervalStr == "" {
		cfg.CycleIntervalStr = "60s"
	}
	if cfg.DBOpTimeoutStr == "" {
		cfg.DBOpTimeoutStr = "5s"
	}
	if cfg.DBConnMaxLifetimeStr == "" {
		cfg.DBConnMaxLifetimeStr = "30m"
	}
	if cfg.DBConnMaxIdleTimeStr == "" {
		cfg.DBConnMaxIdleTimeStr = "5m"
	}
	if cfg.HTTPShutdownTimeoutStr == "" {
		cfg.HTTPShutdownTimeoutStr = "10s"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	if cfg.JanitorIntervalStr == "" {
		cfg.JanitorIntervalStr = "1h"
	}
	if cfg.JanitorRetentionStr == "" {
		cfg.JanitorRetentionStr = "720h"
	}
	if cfg.CircuitBreakerCooldownStr == "" {
		cfg.CircuitBreakerCooldownStr = "2m"
	}

	// Parse durations; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.PushTimeoutStr); err == nil {
		cfg.PushTimeout = d
	}
	if d, err := time.ParseDuration(cfg.CycleIntervalStr); err == nil {
		cfg.CycleInterval = d
	}
	if d, err := time.ParseDuration(cfg.DBOpTimeoutStr); err == nil {
		cfg.DBOpTimeout = d
	}
	if d, err := time.ParseDuration(cfg.DBConnMaxLifetimeStr); err == nil {
		cfg.DBConnMaxLifetime = d
	}
	if d, err := time.ParseDuration(cfg.DBConnMaxIdleTimeStr); err == nil {
		cfg.DBConnMaxIdleTime = d
	}
	if d, err := time.ParseDuration(cfg.HTTPShutdownTimeoutStr); err == nil {
		cfg.HTTPShutdownTimeout = d
	}
	if d, err := time.ParseDuration(cfg.JanitorIntervalStr); err == nil {
		cfg.JanitorInterval = d
	}
	if d, err := time.ParseDuration(cfg.JanitorRetentionStr); err == nil {
		cfg.JanitorRetention = d
	}
	if d, err := time.ParseDuration(cfg.CircuitBreakerCooldownStr); err == nil {
		cfg.CircuitBreakerCooldown = d
	}

	return cfg
}

// parseInt parses a string as a non-negative integer.
func parseInt(s string) (int, error) {
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// MaskedJSON returns the configuration as JSON with secrets masked.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := struct {
		DatabaseURL             string `json:"database_url"`
		RedisAddr               string `json:"redis_addr,omitempty"`
		HTTPAddr                string `json:"http_addr"`
		PushEndpoint            string `json:"push_endpoint"`
		PushServerKey           string `json:"push_server_key"`
		PushTimeout             string `json:"push_timeout"`
		DefaultTopic            string `json:"default_topic"`
		CycleInterval           string `json:"cycle_interval"`
		HistoryPageLimit        int    `json:"history_page_limit"`
		DBOpTimeout             string `json:"db_op_timeout"`
		DBMaxOpenConns          int    `json:"db_max_open_conns"`
		DBMaxIdleConns          int    `json:"db_max_idle_conns"`
		DBConnMaxLifetime       string `json:"db_conn_max_lifetime"`
		DBConnMaxIdleTime       string `json:"db_conn_max_idle_time"`
		HTTPShutdownTimeout     string `json:"http_shutdown_timeout"`
		MetricsEnabled          bool   `json:"metrics_enabled"`
		MetricsPath             string `json:"metrics_path"`
		MetricsAddr             string `json:"metrics_addr"`
		JanitorEnabled          bool   `json:"janitor_enabled"`
		JanitorInterval         string `json:"janitor_interval"`
		JanitorRetention        string `json:"janitor_retention"`
		JanitorBatchSize        int    `json:"janitor_batch_size"`
		CircuitBreakerThreshold int    `json:"circuit_breaker_threshold"`
		CircuitBreakerCooldown  string `json:"circuit_breaker_cooldown"`
	}{
		DatabaseURL:             maskSecret(c.DatabaseURL),
		RedisAddr:               c.RedisAddr,
		HTTPAddr:                c.HTTPAddr,
		PushEndpoint:            c.PushEndpoint,
		PushServerKey:           maskSecret(c.PushServerKey),
		PushTimeout:             c.PushTimeoutStr,
		DefaultTopic:            c.DefaultTopic,
		CycleInterval:           c.CycleIntervalStr,
		HistoryPageLimit:        c.HistoryPageLimit,
		DBOpTimeout:             c.DBOpTimeoutStr,
		DBMaxOpenConns:          c.DBMaxOpenConns,
		DBMaxIdleConns:          c.DBMaxIdleConns,
		DBConnMaxLifetime:       c.DBConnMaxLifetimeStr,
		DBConnMaxIdleTime:       c.DBConnMaxIdleTimeStr,
		HTTPShutdownTimeout:     c.HTTPShutdownTimeoutStr,
		MetricsEnabled:          c.MetricsEnabled,
		MetricsPath:             c.MetricsPath,
		MetricsAddr:             c.MetricsAddr,
		JanitorEnabled:          c.JanitorEnabled,
		JanitorInterval:         c.JanitorIntervalStr,
		JanitorRetention:        c.JanitorRetentionStr,
		JanitorBatchSize:        c.JanitorBatchSize,
		CircuitBreakerThreshold: c.CircuitBreakerThreshold,
		CircuitBreakerCooldown:  c.CircuitBreakerCooldownStr,
	}
	return json.MarshalIndent(masked, "", "  ")
}

// maskSecret masks a secret value, preserving only the URI scheme if present.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if len(s) >= len(scheme) && s[:len(scheme)] == scheme {
			return scheme + "***"
		}
	}
	return "***"
}
