package authorize

import (
	"context"
	"errors"

	"github.com/Alijeyrad/simorq_sessions/pkg/reqctx"
)

var ErrNoSubjectInContext = errors.New("no subject found in context")

// RoleFromContext reads the role of the authenticated actor.
func RoleFromContext(ctx context.Context) (Role, error) {
	if !reqctx.IsAuthenticated(ctx) {
		return "", ErrNoSubjectInContext
	}
	role := Role(reqctx.RoleFromContext(ctx))
	if _, ok := KnownRoles[role]; !ok {
		return "", ErrNoSubjectInContext
	}
	return role, nil
}

// EnforceContext checks the actor in ctx against object and action.
func EnforceContext(ctx context.Context, a IAuthorization, object Resource, action Action) error {
	role, err := RoleFromContext(ctx)
	if err != nil {
		return err
	}
	return a.MustEnforce(ctx, role, object, action)
}
