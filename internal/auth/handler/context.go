package handler

import (
	"context"

	"identity-token-service/internal/user/domain"
)

type contextKey struct{ name string }

var currentUserKey = contextKey{"current_user"}

// WithCurrentUser returns a context carrying the authenticated user. Set by
// the Protect middleware after token verification and the staleness check.
func WithCurrentUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// CurrentUser returns the authenticated user from context and true if set;
// otherwise nil, false.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(currentUserKey).(*domain.User)
	return u, ok
}
