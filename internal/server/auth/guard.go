package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/server/models"
)

// UserLookup resolves a token subject to its current account.
// A nil user with a nil error means the account no longer exists.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Guard authenticates protected calls. It validates the bearer token
// statelessly and then reads the subject's account once, so changes to the
// account are seen even while the token itself has not expired yet.
type Guard struct {
	tokens *TokenService
	users  UserLookup
}

func NewGuard(tokens *TokenService, users UserLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate returns the principal for token. All token and account
// failures match common.ErrUnauthenticated; token failures also match their
// precise cause (expired, bad signature, malformed). Storage failures are
// returned as they are.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	claims, err := g.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	user, err := g.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrUnauthenticated
	}

	return user, nil
}

// ParseBearer extracts the token from an "authorization" value of the form
// "Bearer <token>". The scheme is matched case-insensitively.
func ParseBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", common.ErrUnauthenticated
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", common.ErrUnauthenticated
	}
	return token, nil
}
