package middleware

import (
	"github.com/gofiber/fiber/v3"

	pasetotoken "github.com/Alijeyrad/simorq_sessions/pkg/paseto"
)

// AuthRequired validates a Bearer PASETO access token. On success the claims
// are in c.Locals(pasetotoken.CtxKeyClaims) and are the reqctx actor of
// c.Context().
func AuthRequired(mgr *pasetotoken.Manager) fiber.Handler {
	return pasetotoken.FiberAuth(mgr)
}
