package domain

import (
	"time"

	"github.com/google/uuid"
)

const RoleAdmin = "admin"

// Identity приходит из токена auth-сервиса.
type Identity struct {
	UserID       uuid.UUID
	Email        string
	Role         string
	PremiumUntil time.Time
}

func (i *Identity) HasPremium(now time.Time) bool {
	if i == nil {
		return false
	}
	return !i.PremiumUntil.IsZero() && now.Before(i.PremiumUntil)
}
