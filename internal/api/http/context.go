package http

import (
	"context"

	"membership-backend/internal/domain"
)

type contextKey int

const principalKey contextKey = 0

// Principal is the authenticated caller.
type Principal struct {
	AccountID int32
	Username  string
	Roles     []domain.Role
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller set by the auth middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
