package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken string

	// Gemini summarization
	GeminiAPIKey string
	GeminiModel  string

	// Storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// Crawl
	Tags               []string
	RequestDelay       time.Duration
	PageDelay          time.Duration
	MaxRequestsPerHour int
	StaleYears         int
	Verbose            bool

	// Metrics
	PushgatewayURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		GitHubToken:        getEnv("GITHUB_TOKEN", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		StorageType:        getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:         getEnv("SQLITE_PATH", "./catalog.db"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		Tags:               splitTags(getEnv("CRAWL_TAGS", "google-apps-script,gas-library")),
		RequestDelay:       time.Duration(getEnvInt("REQUEST_DELAY_MS", 1000)) * time.Millisecond,
		PageDelay:          time.Duration(getEnvInt("PAGE_DELAY_MS", 5000)) * time.Millisecond,
		MaxRequestsPerHour: getEnvInt("MAX_REQUESTS_PER_HOUR", 3600),
		StaleYears:         getEnvInt("STALE_YEARS", 7),
		Verbose:            getEnv("VERBOSE", "") != "",
		PushgatewayURL:     getEnv("PUSHGATEWAY_URL", ""),
		APIPort:            getEnv("API_PORT", "8080"),
		APIHost:            getEnv("API_HOST", "localhost"),
		APIEndpoint:        getEnv("API_ENDPOINT", "http://localhost:8080"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// splitTags splits a comma-separated tag list, trimming whitespace and
// dropping empty entries. Order is preserved, duplicates removed.
func splitTags(s string) []string {
	seen := map[string]bool{}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return &ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token is required"}
	}
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	if len(c.Tags) == 0 {
		return &ConfigError{Field: "CRAWL_TAGS", Message: "at least one tag is required"}
	}
	if c.StaleYears < 0 {
		return &ConfigError{Field: "STALE_YEARS", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
