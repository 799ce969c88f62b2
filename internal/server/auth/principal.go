package auth

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/server/models"
)

type principalKey struct{}

// WithPrincipal attaches the authenticated user to ctx.
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFromContext returns the user attached by the session guard.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey{}).(*models.User)
	return user, ok && user != nil
}
