// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath string
	Port         int
	LogLevel     string
	DevMode      bool

	// Quote provider
	QuoteRequestsPerMinute int
	QuoteCacheTTLSeconds   int

	// Advisory (Gemini)
	GeminiAPIKey string
	GeminiModel  string

	// Newsletter / SMTP
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	NewsletterSenderEmail string
	NewsletterSenderName  string
	NewsletterRecipients  string

	// Job schedules (cron expressions)
	SnapshotCron          string
	NewsletterMorningCron string
	NewsletterEveningCron string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath: getEnv("DATABASE_PATH", "./data/portfolio.db"),
		Port:         getEnvAsInt("PORT", 8000),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvAsBool("DEV_MODE", false),

		QuoteRequestsPerMinute: getEnvAsInt("QUOTE_REQUESTS_PER_MINUTE", 60),
		QuoteCacheTTLSeconds:   getEnvAsInt("QUOTE_CACHE_TTL_SECONDS", 300),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		SMTPHost:              getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:              getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		NewsletterSenderEmail: getEnv("NEWSLETTER_SENDER_EMAIL", ""),
		NewsletterSenderName:  getEnv("NEWSLETTER_SENDER_NAME", "Portfolio Manager"),
		NewsletterRecipients:  getEnv("NEWSLETTER_RECIPIENTS", ""),

		SnapshotCron:          getEnv("SNAPSHOT_CRON", "0 0 18 * * MON-FRI"),
		NewsletterMorningCron: getEnv("NEWSLETTER_MORNING_CRON", "0 0 8 * * *"),
		NewsletterEveningCron: getEnv("NEWSLETTER_EVENING_CRON", "0 30 17 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.QuoteRequestsPerMinute <= 0 {
		return fmt.Errorf("QUOTE_REQUESTS_PER_MINUTE must be positive")
	}
	return nil
}

// Recipients parses the comma-separated newsletter recipient list
func (c *Config) Recipients() []string {
	if c.NewsletterRecipients == "" {
		return nil
	}
	var out []string
	for _, addr := range strings.Split(c.NewsletterRecipients, ",") {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
