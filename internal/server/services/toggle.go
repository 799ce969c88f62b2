package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/logging"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/repomanager"
)

// relation describes one edge set between articles and a subject entity.
type relation[S any] struct {
	name string

	// resolve finds the subject named by key. With create set it may create
	// it. found is false when the subject does not exist.
	resolve func(ctx context.Context, m repomanager.RepositoryManager, key string, create bool) (subject S, found bool, err error)

	// missing is returned when an add or remove names an unknown subject;
	// nil makes the operation a no-op instead.
	missing error

	present func(a *models.Article, subject S) bool
	add     func(ctx context.Context, m repomanager.RepositoryManager, articleID int64, subject S) error
	remove  func(ctx context.Context, m repomanager.RepositoryManager, articleID int64, subject S) error
}

// toggler runs idempotent add and remove operations on one relation.
// Edge writes are targeted inserts and deletes, so concurrent toggles on the
// same article never overwrite each other's edges.
type toggler[S any] struct {
	repomanager repomanager.RepositoryManager
	rel         relation[S]
	log         logging.Logger
}

func (t *toggler[S]) load(ctx context.Context, articleID int64) (*models.Article, error) {
	a, err := t.repomanager.Articles().GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, common.ErrTargetNotFound
	}
	return a, nil
}

// Add ensures the edge (key, articleID) exists and returns the article with
// its expanded edges.
func (t *toggler[S]) Add(ctx context.Context, key string, articleID int64) (*models.Article, error) {
	a, err := t.load(ctx, articleID)
	if err != nil {
		return nil, err
	}

	subject, found, err := t.rel.resolve(ctx, t.repomanager, key, true)
	if err != nil {
		return nil, err
	}
	if !found {
		if t.rel.missing != nil {
			return nil, t.rel.missing
		}
		return a, nil
	}

	if t.rel.present(a, subject) {
		return a, nil
	}

	if err := t.rel.add(ctx, t.repomanager, articleID, subject); err != nil {
		return nil, err
	}

	t.log.Debug(ctx, "edge added", "relation", t.rel.name, "article_id", articleID)
	return t.load(ctx, articleID)
}

// Remove ensures the edge (key, articleID) is absent. Removing an absent
// edge succeeds without writing.
func (t *toggler[S]) Remove(ctx context.Context, key string, articleID int64) (*models.Article, error) {
	a, err := t.load(ctx, articleID)
	if err != nil {
		return nil, err
	}

	subject, found, err := t.rel.resolve(ctx, t.repomanager, key, false)
	if err != nil {
		return nil, err
	}
	if !found {
		if t.rel.missing != nil {
			return nil, t.rel.missing
		}
		return a, nil
	}

	if !t.rel.present(a, subject) {
		return a, nil
	}

	if err := t.rel.remove(ctx, t.repomanager, articleID, subject); err != nil {
		return nil, err
	}

	t.log.Debug(ctx, "edge removed", "relation", t.rel.name, "article_id", articleID)
	return t.load(ctx, articleID)
}

// favoriteRelation: subject is a user id that must already exist.
func favoriteRelation() relation[string] {
	return relation[string]{
		name: "favorite",
		resolve: func(ctx context.Context, m repomanager.RepositoryManager, userID string, _ bool) (string, bool, error) {
			u, err := m.Users().GetByID(ctx, userID)
			if err != nil || u == nil {
				return "", false, err
			}
			return u.ID, true, nil
		},
		missing: common.ErrSubjectNotFound,
		present: func(a *models.Article, userID string) bool { return a.FavoritedByUser(userID) },
		add: func(ctx context.Context, m repomanager.RepositoryManager, articleID int64, userID string) error {
			return m.Articles().AddFavorite(ctx, articleID, userID)
		},
		remove: func(ctx context.Context, m repomanager.RepositoryManager, articleID int64, userID string) error {
			return m.Articles().RemoveFavorite(ctx, articleID, userID)
		},
	}
}

// tagRelation: subject is a tag name, created on first use.
func tagRelation() relation[models.Tag] {
	return relation[models.Tag]{
		name: "tag",
		resolve: func(ctx context.Context, m repomanager.RepositoryManager, name string, create bool) (models.Tag, bool, error) {
			var (
				tag *models.Tag
				err error
			)
			if create {
				tag, err = m.Tags().FindOrCreate(ctx, name)
			} else {
				tag, err = m.Tags().FindByName(ctx, name)
			}
			if err != nil || tag == nil {
				return models.Tag{}, false, err
			}
			return *tag, true, nil
		},
		present: func(a *models.Article, tag models.Tag) bool { return a.HasTag(tag.Name) },
		add: func(ctx context.Context, m repomanager.RepositoryManager, articleID int64, tag models.Tag) error {
			return m.Articles().AddTag(ctx, articleID, tag.ID)
		},
		remove: func(ctx context.Context, m repomanager.RepositoryManager, articleID int64, tag models.Tag) error {
			return m.Articles().RemoveTag(ctx, articleID, tag.ID)
		},
	}
}

// MaxTagLength bounds tag names.
const MaxTagLength = 64

func normalizeTag(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", common.NewValidationError("tag", "must not be empty")
	}
	if len(name) > MaxTagLength {
		return "", common.NewValidationError("tag", "must be at most 64 bytes")
	}
	return name, nil
}

// FavoriteService toggles favorites. The subject is always the caller.
type FavoriteService struct {
	toggler *toggler[string]
}

func NewFavoriteService(m repomanager.RepositoryManager, log logging.Logger) *FavoriteService {
	return &FavoriteService{toggler: &toggler[string]{repomanager: m, rel: favoriteRelation(), log: log}}
}

// Favorite marks the article as favorited by principalID.
func (s *FavoriteService) Favorite(ctx context.Context, principalID string, articleID int64) (*models.Article, error) {
	return s.toggler.Add(ctx, principalID, articleID)
}

// Unfavorite removes principalID's favorite from the article.
func (s *FavoriteService) Unfavorite(ctx context.Context, principalID string, articleID int64) (*models.Article, error) {
	return s.toggler.Remove(ctx, principalID, articleID)
}

// TagService attaches and detaches tags. Any authenticated caller may
// change the tags of any article.
type TagService struct {
	toggler     *toggler[models.Tag]
	repomanager repomanager.RepositoryManager
}

func NewTagService(m repomanager.RepositoryManager, log logging.Logger) *TagService {
	return &TagService{
		toggler:     &toggler[models.Tag]{repomanager: m, rel: tagRelation(), log: log},
		repomanager: m,
	}
}

func (s *TagService) AddTag(ctx context.Context, articleID int64, name string) (*models.Article, error) {
	name, err := normalizeTag(name)
	if err != nil {
		return nil, err
	}
	return s.toggler.Add(ctx, name, articleID)
}

func (s *TagService) RemoveTag(ctx context.Context, articleID int64, name string) (*models.Article, error) {
	name, err := normalizeTag(name)
	if err != nil {
		return nil, err
	}
	return s.toggler.Remove(ctx, name, articleID)
}

// List returns every known tag ordered by name.
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	return s.repomanager.Tags().List(ctx)
}
