package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/logging"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/repomanager"
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)
)

// MaxTitleLength bounds article titles.
const MaxTitleLength = 255

type ArticleInput struct {
	Title string
	Body  string
	// Slug is derived from Title when empty.
	Slug string
	Tags []string
}

// ArticleService creates, reads, lists, updates and deletes articles.
// Only the author may update or delete an article.
type ArticleService struct {
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewArticleService(m repomanager.RepositoryManager, log logging.Logger) *ArticleService {
	return &ArticleService{repomanager: m, log: log}
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugSeparator.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func validateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return common.NewValidationError("slug", "must be lowercase words separated by dashes")
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return common.NewValidationError("title", "must not be empty")
	}
	if len(title) > MaxTitleLength {
		return common.NewValidationError("title", "must be at most 255 bytes")
	}
	return nil
}

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return common.NewValidationError("body", "must not be empty")
	}
	return nil
}

// Create stores a new article by authorID together with its tags in one
// unit of work.
func (s *ArticleService) Create(ctx context.Context, authorID string, in ArticleInput) (*models.Article, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateBody(in.Body); err != nil {
		return nil, err
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Title)
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	tagNames := make([]string, 0, len(in.Tags))
	seen := map[string]struct{}{}
	for _, raw := range in.Tags {
		name, err := normalizeTag(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tagNames = append(tagNames, name)
	}

	var created *models.Article
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		author, err := m.Users().GetByID(ctx, authorID)
		if err != nil {
			return err
		}
		if author == nil {
			return common.ErrSubjectNotFound
		}

		a, err := m.Articles().Create(ctx, &models.Article{
			Slug:   slug,
			Title:  in.Title,
			Body:   in.Body,
			Author: models.UserRef{ID: author.ID, UserName: author.UserName},
		})
		if err != nil {
			return err
		}

		for _, name := range tagNames {
			tag, err := m.Tags().FindOrCreate(ctx, name)
			if err != nil {
				return err
			}
			if err := m.Articles().AddTag(ctx, a.ID, tag.ID); err != nil {
				return err
			}
		}

		created, err = m.Articles().GetByID(ctx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "article created", "article_id", created.ID, "slug", created.Slug, "author_id", authorID)
	return created, nil
}

// Get returns the article with the given slug.
func (s *ArticleService) Get(ctx context.Context, slug string) (*models.Article, error) {
	a, err := s.repomanager.Articles().GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, common.ErrTargetNotFound
	}
	return a, nil
}

// GetByID returns the article with the given id.
func (s *ArticleService) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.repomanager.Articles().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, common.ErrTargetNotFound
	}
	return a, nil
}

// List returns one page of articles matching q.
func (s *ArticleService) List(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	return s.repomanager.Articles().List(ctx, q)
}

func (s *ArticleService) authored(ctx context.Context, principalID, slug string) (*models.Article, error) {
	a, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if a.Author.ID != principalID {
		return nil, common.ErrNotArticleAuthor
	}
	return a, nil
}

// Update applies patch to the article identified by slug.
func (s *ArticleService) Update(ctx context.Context, principalID, slug string, patch models.ArticlePatch) (*models.Article, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Body != nil {
		if err := validateBody(*patch.Body); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil {
		if err := validateSlug(*patch.Slug); err != nil {
			return nil, err
		}
	}

	a, err := s.authored(ctx, principalID, slug)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Articles().Update(ctx, a.ID, patch); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "article updated", "article_id", a.ID)
	return s.GetByID(ctx, a.ID)
}

// Delete removes the article identified by slug.
func (s *ArticleService) Delete(ctx context.Context, principalID, slug string) error {
	a, err := s.authored(ctx, principalID, slug)
	if err != nil {
		return err
	}

	if err := s.repomanager.Articles().Delete(ctx, a.ID); err != nil {
		return err
	}

	s.log.Info(ctx, "article deleted", "article_id", a.ID)
	return nil
}
