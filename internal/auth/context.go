package auth

import (
	"context"

	"budgetwise/internal/backend"
)

type ctxKey struct{}

type RequestUser struct {
	Principal backend.Principal
	SessionID string
	Backend   backend.Backend
}

func WithUser(ctx context.Context, u *RequestUser) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the signed-in user placed on ctx by Middleware.
func UserFrom(ctx context.Context) (*RequestUser, bool) {
	u, ok := ctx.Value(ctxKey{}).(*RequestUser)
	return u, ok && u != nil
}
