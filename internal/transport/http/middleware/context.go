package middleware

import (
	"context"

	"erp/internal/domain/authz"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// GetUser returns the authenticated principal, if any. Handlers behind
// RequireAuth can rely on ok being true.
func GetUser(ctx context.Context) (authz.Principal, bool) {
	user, ok := ctx.Value(ctxKeyUser).(authz.Principal)
	return user, ok
}

func withUser(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyUser, p)
}
