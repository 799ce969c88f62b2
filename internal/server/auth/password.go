// Package auth holds the identity primitives of the server: password hashing,
// signed session tokens and the session guard that turns a bearer token into
// an authenticated principal.
package auth

import (
	"github.com/dmitrijs2005/conduit/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest password bcrypt can digest without
// silently truncating it.
const MaxPasswordLength = 72

var (
	ErrEmptyPassword   = common.NewValidationError("password", "must not be empty")
	ErrPasswordTooLong = common.NewValidationError("password", "must be at most 72 bytes")
)

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted digest of the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches digest. Malformed digests
	// never match.
	Verify(password, digest string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt. The salt and cost are
// embedded in each digest, so digests created with an older cost keep
// verifying after the cost is raised.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost. Costs below
// bcrypt.MinCost fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
