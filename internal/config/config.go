package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath  string
	SessionSecret string
	Location      *time.Location
	Household     *Household

	// Telegram Config
	TelegramBotToken   string
	TelegramWebhookURL string
	Port               string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	householdFile := os.Getenv("KITCHEN_HOUSEHOLD_FILE")
	if householdFile == "" {
		return nil, fmt.Errorf("KITCHEN_HOUSEHOLD_FILE environment variable not set")
	}

	sessionSecret := os.Getenv("KITCHEN_SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("KITCHEN_SESSION_SECRET environment variable not set")
	}

	household, err := LoadHousehold(householdFile)
	if err != nil {
		return nil, err
	}

	dbPath := os.Getenv("KITCHEN_DB_PATH")
	if dbPath == "" {
		dbPath = "data/kitchen.db"
	}

	loc := time.Local
	if tz := os.Getenv("KITCHEN_TIMEZONE"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid KITCHEN_TIMEZONE %q: %w", tz, err)
		}
	}

	// Telegram Config (Optional for CLI, required for Bot)
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		DatabasePath:       dbPath,
		SessionSecret:      sessionSecret,
		Location:           loc,
		Household:          household,
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		Port:               port,
	}, nil
}

// RequireTelegram reports an error when the bot-only settings are missing.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}
