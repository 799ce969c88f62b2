package memory

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/server/models"
)

type ArticleRepository struct {
	s    *Store
	undo *undoLog
}

func (r *ArticleRepository) slugTaken(slug string, except int64) bool {
	for id, a := range r.s.st.articles {
		if id != except && a.slug == slug {
			return true
		}
	}
	return false
}

func (r *ArticleRepository) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.slugTaken(a.Slug, 0) {
		return nil, common.ErrSlugTaken
	}

	r.s.st.nextArticle++
	now := r.s.now()
	row := article{
		id:        r.s.st.nextArticle,
		slug:      a.Slug,
		title:     a.Title,
		body:      a.Body,
		authorID:  a.Author.ID,
		createdAt: now,
		updatedAt: now,
	}
	r.s.st.articles[row.id] = row
	r.undo.record(func(st *state) {
		delete(st.articles, row.id)
		delete(st.favorites, row.id)
		delete(st.articleTags, row.id)
	})

	a.ID, a.CreatedAt, a.UpdatedAt = row.id, now, now
	return a, nil
}

// expand builds the article view; callers hold at least the read lock.
func (r *ArticleRepository) expand(row article) *models.Article {
	a := &models.Article{
		ID:          row.id,
		Slug:        row.slug,
		Title:       row.title,
		Body:        row.body,
		Author:      models.UserRef{ID: row.authorID, UserName: r.s.st.users[row.authorID].UserName},
		FavoritedBy: []models.UserRef{},
		Tags:        []models.Tag{},
		CreatedAt:   row.createdAt,
		UpdatedAt:   row.updatedAt,
	}

	for userID := range r.s.st.favorites[row.id] {
		if u, ok := r.s.st.users[userID]; ok {
			a.FavoritedBy = append(a.FavoritedBy, models.UserRef{ID: u.ID, UserName: u.UserName})
		}
	}
	sort.Slice(a.FavoritedBy, func(i, j int) bool { return a.FavoritedBy[i].UserName < a.FavoritedBy[j].UserName })

	for tagID := range r.s.st.articleTags[row.id] {
		if t, ok := r.s.st.tags[tagID]; ok {
			a.Tags = append(a.Tags, t)
		}
	}
	sort.Slice(a.Tags, func(i, j int) bool { return a.Tags[i].Name < a.Tags[j].Name })

	return a
}

func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.st.articles[id]
	if !ok {
		return nil, nil
	}
	return r.expand(row), nil
}

func (r *ArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, row := range r.s.st.articles {
		if row.slug == slug {
			return r.expand(row), nil
		}
	}
	return nil, nil
}

func (r *ArticleRepository) Update(ctx context.Context, id int64, patch models.ArticlePatch) error {
	if err := check(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.st.articles[id]
	if !ok {
		return common.ErrTargetNotFound
	}
	if patch.Slug != nil && r.slugTaken(*patch.Slug, id) {
		return common.ErrSlugTaken
	}

	prev := row
	r.undo.record(func(st *state) {
		if _, ok := st.articles[id]; ok {
			st.articles[id] = prev
		}
	})

	if patch.Title != nil {
		row.title = *patch.Title
	}
	if patch.Body != nil {
		row.body = *patch.Body
	}
	if patch.Slug != nil {
		row.slug = *patch.Slug
	}
	row.updatedAt = r.s.now()
	r.s.st.articles[id] = row

	return nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	if err := check(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.st.articles[id]
	if !ok {
		return common.ErrTargetNotFound
	}
	favorites, tagged := maps.Clone(r.s.st.favorites[id]), maps.Clone(r.s.st.articleTags[id])
	r.undo.record(func(st *state) {
		st.articles[id] = row
		if favorites != nil {
			st.favorites[id] = favorites
		}
		if tagged != nil {
			st.articleTags[id] = tagged
		}
	})

	delete(r.s.st.articles, id)
	delete(r.s.st.favorites, id)
	delete(r.s.st.articleTags, id)

	return nil
}

func (r *ArticleRepository) matches(a *models.Article, q models.ArticleQuery) bool {
	if q.Author != "" && a.Author.UserName != q.Author {
		return false
	}
	if q.Tag != "" && !a.HasTag(q.Tag) {
		return false
	}
	if q.Favorited != "" {
		found := false
		for _, u := range a.FavoritedBy {
			if u.UserName == q.Favorited {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func compareArticles(a, b *models.Article, orderBy string) int {
	var c int
	switch orderBy {
	case models.OrderByTitle:
		c = strings.Compare(a.Title, b.Title)
	case models.OrderByUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		switch {
		case a.ID < b.ID:
			c = -1
		case a.ID > b.ID:
			c = 1
		}
	}
	return c
}

func (r *ArticleRepository) List(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []*models.Article{}
	for _, row := range r.s.st.articles {
		if a := r.expand(row); r.matches(a, q) {
			matched = append(matched, a)
		}
	}

	desc := q.Order != "ASC"
	sort.Slice(matched, func(i, j int) bool {
		c := compareArticles(matched[i], matched[j], q.OrderBy)
		if desc {
			return c > 0
		}
		return c < 0
	})

	page := &models.ArticlePage{Articles: []*models.Article{}, Total: len(matched)}
	if q.Offset < len(matched) {
		end := len(matched)
		if q.Limit > 0 && q.Offset+q.Limit < end {
			end = q.Offset + q.Limit
		}
		page.Articles = matched[q.Offset:end]
	}

	return page, nil
}

func (r *ArticleRepository) AddFavorite(ctx context.Context, articleID int64, userID string) error {
	if err := check(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.articles[articleID]; !ok {
		return common.ErrTargetNotFound
	}
	if _, ok := r.s.st.users[userID]; !ok {
		return common.ErrSubjectNotFound
	}
	if _, ok := r.s.st.favorites[articleID][userID]; ok {
		return nil
	}
	if r.s.st.favorites[articleID] == nil {
		r.s.st.favorites[articleID] = map[string]struct{}{}
	}
	r.s.st.favorites[articleID][userID] = struct{}{}
	r.undo.record(func(st *state) { delete(st.favorites[articleID], userID) })

	return nil
}

func (r *ArticleRepository) RemoveFavorite(ctx context.Context, articleID int64, userID string) error {
	if err := check(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.favorites[articleID][userID]; !ok {
		return nil
	}
	delete(r.s.st.favorites[articleID], userID)
	r.undo.record(func(st *state) {
		if _, ok := st.articles[articleID]; !ok {
			return
		}
		if st.favorites[articleID] == nil {
			st.favorites[articleID] = map[string]struct{}{}
		}
		st.favorites[articleID][userID] = struct{}{}
	})
	return nil
}

func (r *ArticleRepository) AddTag(ctx context.Context, articleID, tagID int64) error {
	if err := check(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.articles[articleID]; !ok {
		return common.ErrTargetNotFound
	}
	if _, ok := r.s.st.tags[tagID]; !ok {
		return common.ErrSubjectNotFound
	}
	if _, ok := r.s.st.articleTags[articleID][tagID]; ok {
		return nil
	}
	if r.s.st.articleTags[articleID] == nil {
		r.s.st.articleTags[articleID] = map[int64]struct{}{}
	}
	r.s.st.articleTags[articleID][tagID] = struct{}{}
	r.undo.record(func(st *state) { delete(st.articleTags[articleID], tagID) })

	return nil
}

func (r *ArticleRepository) RemoveTag(ctx context.Context, articleID, tagID int64) error {
	if err := check(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.articleTags[articleID][tagID]; !ok {
		return nil
	}
	delete(r.s.st.articleTags[articleID], tagID)
	r.undo.record(func(st *state) {
		if _, ok := st.articles[articleID]; !ok {
			return
		}
		if _, ok := st.tags[tagID]; !ok {
			return
		}
		if st.articleTags[articleID] == nil {
			st.articleTags[articleID] = map[int64]struct{}{}
		}
		st.articleTags[articleID][tagID] = struct{}{}
	})
	return nil
}
