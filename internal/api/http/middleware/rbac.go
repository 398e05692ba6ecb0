package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_sessions/pkg/authorize"
)

// RequirePermission checks the role of the authenticated actor against the
// resource and action. It must run after AuthRequired.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		err := authorize.EnforceContext(c.Context(), auth, resource, action)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, authorize.ErrNoSubjectInContext):
			return fiber.ErrUnauthorized
		case errors.Is(err, authorize.ErrForbidden):
			return fiber.ErrForbidden
		default:
			return err
		}
	}
}
