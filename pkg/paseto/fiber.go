package pasetotoken

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/config"
	"github.com/Alijeyrad/simorq_sessions/pkg/reqctx"
)

const CtxKeyClaims = "auth.claims"

// FiberAuth verifies the bearer token and stores the claims both in locals
// and as the reqctx actor of the request context. Tokens without a user id
// or role are rejected, since every route authorizes on both.
func FiberAuth(m *Manager) fiber.Handler {
	return func(c fiber.Ctx) error {
		scheme, token, found := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := m.Verify(strings.TrimSpace(token))
		if err != nil {
			slog.DebugContext(c.Context(), "authorize: rejected token", "error", err)
			return fiber.ErrUnauthorized
		}
		if claims.UserID == uuid.Nil || claims.Role == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals(CtxKeyClaims, claims)
		c.SetContext(reqctx.WithActor(c.Context(), claims))
		return c.Next()
	}
}

// ClaimsFromFiber returns the claims stored by FiberAuth.
func ClaimsFromFiber(c fiber.Ctx) (*Claims, bool) {
	cl, ok := c.Locals(CtxKeyClaims).(*Claims)
	return cl, ok && cl != nil
}

// NewPasetoManager creates a new PASETO manager from config.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto

	keys, err := LoadKeys(KeyStrings{
		Mode:         Mode(p.Mode),
		SymmetricHex: p.LocalKeyHex,
		SecretHex:    p.SecretKeyHex,
		PublicHex:    p.PublicKeyHex,
	})
	if err != nil {
		return nil, err
	}

	return New(Config{
		Mode:      Mode(p.Mode),
		Issuer:    p.Issuer,
		Audience:  p.Audience,
		AccessTTL: time.Duration(p.AccessTTLMinutes) * time.Minute,
	}, keys)
}
