// Package config loads server settings from the environment, with an optional pulse.yaml.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        int
	PostgresDSN string
	RedisAddr   string

	ReportsDir       string
	ChromePath       string
	PDFRenderTimeout time.Duration

	SendGridAPIKey string
	FromName       string
	FromAddress    string
	AppBaseURL     string

	QueueWorkers    int
	QueueJobTimeout time.Duration
	QueueMaxRecords int
	QueueRetention  time.Duration
	ReportCacheTTL  time.Duration

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"port":               8080,
	"reports_dir":        "./reports",
	"pdf_render_timeout": 30 * time.Second,
	"from_name":          "Pulse",
	"from_address":       "reports@pulse.local",
	"app_base_url":       "http://localhost:3000",
	"queue_workers":      4,
	"queue_job_timeout":  5 * time.Minute,
	"queue_max_records":  10000,
	"queue_retention":    24 * time.Hour,
	"report_cache_ttl":   60 * time.Second,
	"log_level":          "info",
	"log_format":         "json",
}

var envOnly = []string{"postgres_dsn", "redis_addr", "chrome_path", "sendgrid_api_key"}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("pulse")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range envOnly {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:             v.GetInt("port"),
		PostgresDSN:      v.GetString("postgres_dsn"),
		RedisAddr:        v.GetString("redis_addr"),
		ReportsDir:       v.GetString("reports_dir"),
		ChromePath:       v.GetString("chrome_path"),
		PDFRenderTimeout: v.GetDuration("pdf_render_timeout"),
		SendGridAPIKey:   v.GetString("sendgrid_api_key"),
		FromName:         v.GetString("from_name"),
		FromAddress:      v.GetString("from_address"),
		AppBaseURL:       strings.TrimRight(v.GetString("app_base_url"), "/"),
		QueueWorkers:     v.GetInt("queue_workers"),
		QueueJobTimeout:  v.GetDuration("queue_job_timeout"),
		QueueMaxRecords:  v.GetInt("queue_max_records"),
		QueueRetention:   v.GetDuration("queue_retention"),
		ReportCacheTTL:   v.GetDuration("report_cache_ttl"),
		LogLevel:         strings.ToLower(v.GetString("log_level")),
		LogFormat:        strings.ToLower(v.GetString("log_format")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.PostgresDSN == "":
		return errors.New("POSTGRES_DSN is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid PORT %d", c.Port)
	case c.QueueWorkers <= 0:
		return fmt.Errorf("QUEUE_WORKERS must be positive, got %d", c.QueueWorkers)
	case c.QueueMaxRecords <= 0:
		return fmt.Errorf("QUEUE_MAX_RECORDS must be positive, got %d", c.QueueMaxRecords)
	case c.PDFRenderTimeout <= 0:
		return errors.New("PDF_RENDER_TIMEOUT must be a positive duration")
	case c.QueueJobTimeout < 0 || c.QueueRetention < 0 || c.ReportCacheTTL < 0:
		return errors.New("durations must not be negative")
	case c.LogFormat != "json" && c.LogFormat != "console":
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}
