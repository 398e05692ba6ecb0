package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

// Claims is the app-facing token payload.
type Claims struct {
	UserID uuid.UUID
	Role   string

	Issuer    string
	Audience  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// GetUserID implements reqctx.Actor.
func (c *Claims) GetUserID() uuid.UUID { return c.UserID }

// GetRole implements reqctx.Actor.
func (c *Claims) GetRole() string { return c.Role }
