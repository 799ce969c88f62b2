package services

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/repomanager"
)

// ProfileService answers lookups of other users' public profiles.
type ProfileService struct {
	repomanager repomanager.RepositoryManager
}

func NewProfileService(m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{repomanager: m}
}

// Get finds a user by username, falling back to the user id.
func (s *ProfileService) Get(ctx context.Context, ref string) (*models.User, error) {
	if ref == "" {
		return nil, common.NewValidationError("user", "must not be empty")
	}

	user, err := s.repomanager.Users().GetByUsername(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if user, err = s.repomanager.Users().GetByID(ctx, ref); err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, common.ErrUserNotFound
	}
	return user, nil
}

func (s *ProfileService) List(ctx context.Context, q models.UserQuery) (*models.UserPage, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	return s.repomanager.Users().List(ctx, q)
}
