package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Member is one person allowed to use the kitchen.
type Member struct {
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	PhotoURL    string `yaml:"photo_url"`
	// TelegramID links a Telegram account to this member. Zero means the
	// member has not linked one.
	TelegramID int64 `yaml:"telegram_id"`
}

// Household is the fixed allow-list of members.
type Household struct {
	Members []Member `yaml:"members"`
}

// LoadHousehold reads and validates the household YAML file.
func LoadHousehold(path string) (*Household, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read household file %s: %w", path, err)
	}
	return ParseHousehold(data)
}

// ParseHousehold decodes household YAML.
func ParseHousehold(data []byte) (*Household, error) {
	var h Household
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse household file: %w", err)
	}
	if len(h.Members) == 0 {
		return nil, fmt.Errorf("household file lists no members")
	}
	seen := make(map[string]struct{}, len(h.Members))
	for i, m := range h.Members {
		email := strings.TrimSpace(m.Email)
		if email == "" {
			return nil, fmt.Errorf("household member %d has no email", i)
		}
		if _, dup := seen[strings.ToLower(email)]; dup {
			return nil, fmt.Errorf("household member %s listed twice", email)
		}
		seen[strings.ToLower(email)] = struct{}{}
		h.Members[i].Email = email
	}
	return &h, nil
}

// Emails returns the allow-listed addresses.
func (h *Household) Emails() []string {
	emails := make([]string, 0, len(h.Members))
	for _, m := range h.Members {
		emails = append(emails, m.Email)
	}
	return emails
}

// ByTelegramID finds the member linked to a Telegram account.
func (h *Household) ByTelegramID(id int64) (Member, bool) {
	if id == 0 {
		return Member{}, false
	}
	for _, m := range h.Members {
		if m.TelegramID == id {
			return m, true
		}
	}
	return Member{}, false
}
