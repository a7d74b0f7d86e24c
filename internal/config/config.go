package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scopa-ai/signal/internal/heuristics"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Base URL the scanners use to reach /api/reddit and /api/twitter.
	// Defaults to this server itself.
	ProxyBaseURL string

	// Scanner configuration
	QueryMatchMode  string // "loose" or "strict"
	DisabledSources []string
	RedditPause     time.Duration
	MaxResults      int
	EnrichMinLeads  int

	// API keys and credentials
	RedditClientID     string
	RedditClientSecret string
	TwitterBearerToken string
	GitHubToken        string

	// LLM configuration (OpenAI-compatible endpoint)
	LLMAPIKey       string
	LLMBaseURL      string
	LLMModel        string
	LLMMonthlyQuota int

	// Persistence
	DatabaseURL string
	RedisURL    string

	// Alert scheduling
	CronSecret         string
	EnableCronEndpoint bool
	AlertSchedule      string // six-field cron expression; empty disables the in-process scheduler

	// Snapshot archive
	StorageAccount   string
	StorageContainer string
	SnapshotDir      string

	// Notification delivery
	TeamsWebhookURL string
	EmailFrom       string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	port := getEnv("PORT", "8080")

	cfg := &Config{
		Port:  port,
		Debug: getBoolEnv("DEBUG", false),

		ProxyBaseURL: getEnv("PROXY_BASE_URL", "http://localhost:"+port),

		QueryMatchMode:  strings.ToLower(getEnv("QUERY_MATCH_MODE", heuristics.MatchLoose)),
		DisabledSources: getSliceEnv("DISABLED_SOURCES", nil),
		RedditPause:     getDurationEnv("REDDIT_PAUSE", 2*time.Second),
		MaxResults:      getIntEnv("MAX_RESULTS", 20),
		EnrichMinLeads:  getIntEnv("ENRICH_MIN_LEADS", 5),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		GitHubToken:        getEnv("GITHUB_TOKEN", ""),

		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMModel:        getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMonthlyQuota: getIntEnv("LLM_MONTHLY_QUOTA", 1000),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		CronSecret:         getEnv("CRON_SECRET", ""),
		EnableCronEndpoint: getBoolEnv("ENABLE_CRON_ENDPOINT", true),
		AlertSchedule:      getEnv("ALERT_SCHEDULE", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "signal-snapshots"),
		SnapshotDir:      getEnv("SNAPSHOT_DIR", ""),

		TeamsWebhookURL: getEnv("TEAMS_WEBHOOK_URL", ""),
		EmailFrom:       getEnv("EMAIL_FROM", ""),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getIntEnv("SMTP_PORT", 587),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := heuristics.MatcherFor(c.QueryMatchMode); err != nil {
		return fmt.Errorf("QUERY_MATCH_MODE must be 'loose' or 'strict'")
	}

	if c.MaxResults <= 0 {
		return fmt.Errorf("MAX_RESULTS must be positive")
	}

	if c.EnableCronEndpoint && c.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET is required when ENABLE_CRON_ENDPOINT is set")
	}

	if c.EmailFrom != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when EMAIL_FROM is set")
		}
	}

	return nil
}

// Matcher returns the configured query matcher
func (c *Config) Matcher() heuristics.Matcher {
	m, err := heuristics.MatcherFor(c.QueryMatchMode)
	if err != nil {
		return heuristics.MatchesQuery
	}
	return m
}

// SourceDisabled reports whether a scanner was switched off via DISABLED_SOURCES
func (c *Config) SourceDisabled(name string) bool {
	for _, disabled := range c.DisabledSources {
		if strings.EqualFold(disabled, name) {
			return true
		}
	}
	return false
}

// LLMEnabled reports whether an LLM key is configured
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
