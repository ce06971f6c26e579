package rbac

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/rental"
)

type userContextKey struct{}

// ContextWithUser stores the resolved user in context.
func ContextWithUser(ctx context.Context, user *rental.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the resolved user from context.
func UserFromContext(ctx context.Context) *rental.User {
	user, _ := ctx.Value(userContextKey{}).(*rental.User)
	return user
}
