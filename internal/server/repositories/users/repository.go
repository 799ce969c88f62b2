// Package users is the identity store adapter: persistence of user accounts
// behind a small interface. Lookups report absence as (nil, nil) and reserve
// errors for storage failures.
package users

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/server/models"
)

// Unique constraint names from the users migration.
const (
	EmailConstraint    = "users_email_key"
	UsernameConstraint = "users_username_key"
)

type Repository interface {
	// Create stores a new user, assigning an id when none is set. Duplicate
	// emails and usernames fail with common.ErrEmailTaken and
	// common.ErrUsernameTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail matches the email case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// List returns one page of users ordered by username.
	List(ctx context.Context, q models.UserQuery) (*models.UserPage, error)

	// Update persists email, username, bio and image. It returns (nil, nil)
	// when the user no longer exists.
	Update(ctx context.Context, user *models.User) (*models.User, error)

	// UpdatePassword replaces the stored digest.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
