package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated caller. Token claims implement it.
type Actor interface {
	GetUserID() uuid.UUID
	GetRole() string
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, keyActor, a)
}

// ActorFromContext returns nil for anonymous requests.
func ActorFromContext(ctx context.Context) Actor {
	a, _ := ctx.Value(keyActor).(Actor)
	return a
}

func IsAuthenticated(ctx context.Context) bool {
	a := ActorFromContext(ctx)
	return a != nil && a.GetUserID() != uuid.Nil
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	a := ActorFromContext(ctx)
	if a == nil || a.GetUserID() == uuid.Nil {
		return uuid.Nil, false
	}
	return a.GetUserID(), true
}

// RoleFromContext returns "" for anonymous requests.
func RoleFromContext(ctx context.Context) string {
	if a := ActorFromContext(ctx); a != nil {
		return a.GetRole()
	}
	return ""
}
