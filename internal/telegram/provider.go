package telegram

import (
	"context"
	"fmt"

	"shared-kitchen/internal/auth"
	"shared-kitchen/internal/config"
)

// memberProvider vouches for a Telegram sender by looking their user ID up
// in the household file.
type memberProvider struct {
	household *config.Household
	userID    int64
}

func (p memberProvider) SignIn(ctx context.Context) (auth.Identity, error) {
	m, ok := p.household.ByTelegramID(p.userID)
	if !ok {
		return auth.Identity{}, fmt.Errorf("telegram user %d is not linked to a household member", p.userID)
	}
	return auth.Identity{
		Email:       m.Email,
		DisplayName: m.DisplayName,
		PhotoURL:    m.PhotoURL,
	}, nil
}
