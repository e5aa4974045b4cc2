package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testHousehold = `
members:
  - email: sara@example.com
    display_name: Sara Bush
    telegram_id: 1001
  - email: sunit@example.com
    display_name: Sunit Mathur
`

func writeHousehold(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "household.yaml")
	if err := os.WriteFile(path, []byte(testHousehold), 0644); err != nil {
		t.Fatalf("Failed to write household file: %v", err)
	}
	return path
}

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("KITCHEN_HOUSEHOLD_FILE", writeHousehold(t))
		setEnv("KITCHEN_SESSION_SECRET", "secret")
		setEnv("KITCHEN_DB_PATH", "")
		setEnv("KITCHEN_TIMEZONE", "UTC")
		setEnv("PORT", "")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "data/kitchen.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
		}
		if cfg.Location.String() != "UTC" {
			t.Errorf("Expected UTC location, got '%s'", cfg.Location)
		}
		if len(cfg.Household.Members) != 2 {
			t.Errorf("Expected 2 household members, got %d", len(cfg.Household.Members))
		}
	})

	t.Run("MissingHouseholdFile", func(t *testing.T) {
		setEnv("KITCHEN_SESSION_SECRET", "secret")
		os.Unsetenv("KITCHEN_HOUSEHOLD_FILE")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing KITCHEN_HOUSEHOLD_FILE, got nil")
		}
		expectedError := "KITCHEN_HOUSEHOLD_FILE environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingSessionSecret", func(t *testing.T) {
		setEnv("KITCHEN_HOUSEHOLD_FILE", writeHousehold(t))
		os.Unsetenv("KITCHEN_SESSION_SECRET")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing KITCHEN_SESSION_SECRET, got nil")
		}
		expectedError := "KITCHEN_SESSION_SECRET environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidTimezone", func(t *testing.T) {
		setEnv("KITCHEN_HOUSEHOLD_FILE", writeHousehold(t))
		setEnv("KITCHEN_SESSION_SECRET", "secret")
		setEnv("KITCHEN_TIMEZONE", "Mars/Olympus_Mons")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for an unknown timezone, got nil")
		}
	})

	t.Run("RequireTelegram", func(t *testing.T) {
		cfg := &Config{TelegramBotToken: "token"}
		if err := cfg.RequireTelegram(); err == nil {
			t.Error("Expected an error for missing TELEGRAM_WEBHOOK_URL, got nil")
		}
		cfg.TelegramWebhookURL = "https://example.com/webhook"
		if err := cfg.RequireTelegram(); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})
}

func TestParseHousehold(t *testing.T) {
	t.Run("Lookups", func(t *testing.T) {
		h, err := ParseHousehold([]byte(testHousehold))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if m, ok := h.ByTelegramID(1001); !ok || m.Email != "sara@example.com" {
			t.Errorf("Expected Telegram 1001 to map to sara, got %+v (%v)", m, ok)
		}
		if _, ok := h.ByTelegramID(0); ok {
			t.Error("Expected unlinked Telegram ID 0 to match nobody")
		}
		if got := h.Emails(); len(got) != 2 {
			t.Errorf("Expected 2 emails, got %v", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if _, err := ParseHousehold([]byte("members: []")); err == nil {
			t.Error("Expected an error for an empty household, got nil")
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		data := "members:\n  - email: a@example.com\n  - email: A@example.com\n"
		if _, err := ParseHousehold([]byte(data)); err == nil {
			t.Error("Expected an error for a duplicate member, got nil")
		}
	})

	t.Run("MissingEmail", func(t *testing.T) {
		data := "members:\n  - display_name: Nobody\n"
		if _, err := ParseHousehold([]byte(data)); err == nil {
			t.Error("Expected an error for a member without email, got nil")
		}
	})
}
