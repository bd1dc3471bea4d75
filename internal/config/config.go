package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Auth service (optional; empty base URL disables auth)
	AuthBaseURL    string
	AuthAPIKey     string
	AuthRedirectTo string

	// Places / geocoding service (optional; empty key disables it)
	PlacesBaseURL string
	PlacesAPIKey  string

	// Caching
	SummaryCacheTTL time.Duration
	SessionCacheTTL time.Duration

	// Notifications
	ToastRetention time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/loopledger.db"),

		AuthBaseURL:    getEnv("AUTH_BASE_URL", ""),
		AuthAPIKey:     getEnv("AUTH_API_KEY", ""),
		AuthRedirectTo: getEnv("AUTH_REDIRECT_TO", ""),

		PlacesBaseURL: getEnv("PLACES_BASE_URL", ""),
		PlacesAPIKey:  getEnv("PLACES_API_KEY", ""),

		SummaryCacheTTL: getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),
		SessionCacheTTL: getEnvDuration("SESSION_CACHE_TTL", 5*time.Minute),

		ToastRetention: getEnvDuration("TOAST_RETENTION", time.Minute),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		problems = append(problems, "SQLite database path cannot be empty")
	}

	if c.AuthBaseURL != "" {
		if u, err := url.Parse(c.AuthBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			problems = append(problems, fmt.Sprintf("invalid auth base URL '%s': must be http(s)", c.AuthBaseURL))
		}
		if c.AuthAPIKey == "" {
			problems = append(problems, "auth API key cannot be empty when an auth base URL is set")
		}
	}

	if c.PlacesBaseURL != "" {
		if u, err := url.Parse(c.PlacesBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			problems = append(problems, fmt.Sprintf("invalid places base URL '%s': must be http(s)", c.PlacesBaseURL))
		}
	}

	if c.SummaryCacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}
	if c.SessionCacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid session cache TTL %v: must not be negative", c.SessionCacheTTL))
	}
	if c.ToastRetention < time.Second {
		problems = append(problems, fmt.Sprintf("invalid toast retention %v: must be at least 1 second", c.ToastRetention))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
