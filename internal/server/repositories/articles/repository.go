// Package articles persists articles and their favorite and tag edges.
package articles

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/server/models"
)

// SlugConstraint is the unique constraint on article slugs.
const SlugConstraint = "articles_slug_key"

type Repository interface {
	// Create stores the article row (not its edges) and fills ID and
	// timestamps. A duplicate slug fails with common.ErrSlugTaken.
	Create(ctx context.Context, article *models.Article) (*models.Article, error)

	// GetByID and GetBySlug return the article with author, favorites and
	// tags expanded, or (nil, nil) when it does not exist.
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)

	// Update applies the non-nil fields of patch. A missing article fails
	// with common.ErrTargetNotFound.
	Update(ctx context.Context, id int64, patch models.ArticlePatch) error

	// Delete removes the article and its edges. A missing article fails
	// with common.ErrTargetNotFound.
	Delete(ctx context.Context, id int64) error

	// List returns one page of expanded articles matching q. q must be
	// normalized.
	List(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error)

	// Edge writes. Adds are idempotent and removes of absent edges are
	// no-ops.
	AddFavorite(ctx context.Context, articleID int64, userID string) error
	RemoveFavorite(ctx context.Context, articleID int64, userID string) error
	AddTag(ctx context.Context, articleID, tagID int64) error
	RemoveTag(ctx context.Context, articleID, tagID int64) error
}
