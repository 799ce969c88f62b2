// Package services contains server-side business logic: registration and
// login, profile management, article management and the favorite and tag
// toggles. Services are stateless apart from their dependencies and are safe
// for concurrent use.
package services

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/logging"
	"github.com/dmitrijs2005/conduit/internal/server/auth"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/repomanager"
	"github.com/samber/oops"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{2,19}$`)

// dummyPassword is hashed once at startup; logins for unknown emails verify
// against that digest so both failure paths cost one bcrypt comparison.
const dummyPassword = "conduit-timing-parity"

type RegisterInput struct {
	Email    string
	UserName string
	Password string
}

// LoginResult is returned on successful login. It never carries the
// password digest.
type LoginResult struct {
	Profile   models.Profile
	Token     string
	ExpiresAt time.Time
}

// ProfilePatch carries optional profile changes; nil fields are kept.
type ProfilePatch struct {
	Email    *string
	UserName *string
	Bio      *string
	Image    *string
}

// AuthService registers accounts, logs users in and manages their profile.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *auth.TokenService
	tokenTTL    time.Duration
	dummyDigest string
	log         logging.Logger
}

func NewAuthService(m repomanager.RepositoryManager, hasher auth.PasswordHasher, tokens *auth.TokenService,
	tokenTTL time.Duration, log logging.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, oops.Code("AUTH_SETUP_FAILED").Wrap(err)
	}

	return &AuthService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		dummyDigest: dummy,
		log:         log,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return common.NewValidationError("email", "must be a valid address")
	}
	return nil
}

func validateUserName(name string) error {
	if !usernamePattern.MatchString(name) {
		return common.NewValidationError("username",
			"must be 3-20 letters, digits or underscores and not start with a digit")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return auth.ErrEmptyPassword
	}
	if len(password) > auth.MaxPasswordLength {
		return auth.ErrPasswordTooLong
	}
	return nil
}

// Register creates an account. Email and username must be unused; the
// pre-checks give precise errors in the common case and the store's
// constraints decide races between concurrent registrations.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateUserName(in.UserName); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users()

	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.ErrEmailTaken
	}

	existing, err = repo.GetByUsername(ctx, in.UserName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.ErrUsernameTaken
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := repo.Create(ctx, &models.User{
		Email:        email,
		UserName:     in.UserName,
		PasswordHash: digest,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "username", user.UserName)
	return user, nil
}

// Login checks the credentials and issues a session token. Unknown email and
// wrong password fail with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repomanager.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if user == nil {
		s.hasher.Verify(password, s.dummyDigest)
		return nil, common.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, auth.SessionClaims{Email: user.Email, Username: user.UserName}, s.tokenTTL)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("user_id", user.ID).Wrap(err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{Profile: user.Profile(), Token: token, ExpiresAt: expiresAt}, nil
}

// Me returns the current account of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrSubjectNotFound
	}
	return user, nil
}

// UpdateProfile applies patch to the account of userID.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*models.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if patch.UserName != nil {
		if err := validateUserName(*patch.UserName); err != nil {
			return nil, err
		}
		user.UserName = *patch.UserName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Image != nil {
		user.Image = *patch.Image
	}

	updated, err := s.repomanager.Users().Update(ctx, user)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, common.ErrSubjectNotFound
	}
	return updated, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	digest, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}

	if err := s.repomanager.Users().UpdatePassword(ctx, userID, digest); err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "user_id", userID)
	return nil
}
