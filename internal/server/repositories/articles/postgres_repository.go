package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/dbx"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/samber/oops"
)

type PostgresRepository struct {
	db      dbx.DBTX
	timeout time.Duration
}

func NewPostgresRepository(db dbx.DBTX, timeout time.Duration) *PostgresRepository {
	return &PostgresRepository{db: db, timeout: timeout}
}

func translate(op string, err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok && constraint == SlugConstraint {
		return common.ErrSlugTaken
	}
	// Edge writes racing with the deletion of either endpoint.
	if constraint, ok := dbx.ForeignKeyViolation(err); ok {
		switch constraint {
		case "article_favorites_user_id_fkey", "article_tags_tag_id_fkey", "articles_author_id_fkey":
			return common.ErrSubjectNotFound
		default:
			return common.ErrTargetNotFound
		}
	}
	return oops.Code("DB_ERROR").With("operation", op).Wrapf(dbx.Classify(err), "db error")
}

// orderColumns whitelists sortable columns; values are never interpolated
// from input directly.
var orderColumns = map[string]string{
	models.OrderByCreatedAt: "a.created_at",
	models.OrderByUpdatedAt: "a.updated_at",
	models.OrderByTitle:     "a.title",
}

const articleSelect = `SELECT a.id, a.slug, a.title, a.body, a.created_at, a.updated_at, u.id, u.username
		 FROM articles a
		 JOIN users u ON u.id = a.author_id
		 `

func (r *PostgresRepository) Create(ctx context.Context, article *models.Article) (*models.Article, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	query :=
		`INSERT INTO articles (slug, title, body, author_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		article.Slug, article.Title, article.Body, article.Author.ID).
		Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return nil, translate("create article", err)
	}

	return article, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	return r.getOne(ctx, "get article by id", articleSelect+`WHERE a.id = $1`, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return r.getOne(ctx, "get article by slug", articleSelect+`WHERE a.slug = $1`, slug)
}

func (r *PostgresRepository) getOne(ctx context.Context, op, query string, arg any) (*models.Article, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	a := &models.Article{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Slug, &a.Title, &a.Body, &a.CreatedAt, &a.UpdatedAt, &a.Author.ID, &a.Author.UserName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translate(op, err)
	}

	if err := r.loadEdges(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (r *PostgresRepository) loadEdges(ctx context.Context, a *models.Article) error {
	favorites, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.username
		 FROM article_favorites f
		 JOIN users u ON u.id = f.user_id
		 WHERE f.article_id = $1
		 ORDER BY u.username
		 `, a.ID)
	if err != nil {
		return translate("load favorites", err)
	}
	defer favorites.Close()

	a.FavoritedBy = []models.UserRef{}
	for favorites.Next() {
		var u models.UserRef
		if err := favorites.Scan(&u.ID, &u.UserName); err != nil {
			return translate("load favorites", err)
		}
		a.FavoritedBy = append(a.FavoritedBy, u)
	}
	if err := favorites.Err(); err != nil {
		return translate("load favorites", err)
	}

	tags, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.name
		 FROM article_tags at
		 JOIN tags t ON t.id = at.tag_id
		 WHERE at.article_id = $1
		 ORDER BY t.name
		 `, a.ID)
	if err != nil {
		return translate("load tags", err)
	}
	defer tags.Close()

	a.Tags = []models.Tag{}
	for tags.Next() {
		var t models.Tag
		if err := tags.Scan(&t.ID, &t.Name); err != nil {
			return translate("load tags", err)
		}
		a.Tags = append(a.Tags, t)
	}
	if err := tags.Err(); err != nil {
		return translate("load tags", err)
	}

	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.ArticlePatch) error {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	query :=
		`UPDATE articles
		 SET title = COALESCE($2, title), body = COALESCE($3, body), slug = COALESCE($4, slug), updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, nullable(patch.Title), nullable(patch.Body), nullable(patch.Slug))
	if err != nil {
		return translate("update article", err)
	}

	return r.expectOne(res, "update article")
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return translate("delete article", err)
	}

	return r.expectOne(res, "delete article")
}

func (r *PostgresRepository) expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return translate(op, err)
	}
	if n == 0 {
		return common.ErrTargetNotFound
	}
	return nil
}

const listFilter = `WHERE ($1 = '' OR u.username = $1)
		   AND ($2 = '' OR EXISTS (
		         SELECT 1 FROM article_tags at JOIN tags t ON t.id = at.tag_id
		         WHERE at.article_id = a.id AND t.name = $2))
		   AND ($3 = '' OR EXISTS (
		         SELECT 1 FROM article_favorites f JOIN users fu ON fu.id = f.user_id
		         WHERE f.article_id = a.id AND fu.username = $3))
		 `

func (r *PostgresRepository) List(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error) {
	column, ok := orderColumns[q.OrderBy]
	if !ok || (q.Order != "ASC" && q.Order != "DESC") {
		return nil, common.NewValidationError("orderBy", "unsupported ordering")
	}

	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	page := &models.ArticlePage{Articles: []*models.Article{}}

	countQuery := `SELECT count(*) FROM articles a JOIN users u ON u.id = a.author_id ` + listFilter
	if err := r.db.QueryRowContext(ctx, countQuery, q.Author, q.Tag, q.Favorited).Scan(&page.Total); err != nil {
		return nil, translate("count articles", err)
	}

	query := articleSelect + listFilter +
		fmt.Sprintf(`ORDER BY %s %s, a.id %s LIMIT $4 OFFSET $5`, column, q.Order, q.Order)

	rows, err := r.db.QueryContext(ctx, query, q.Author, q.Tag, q.Favorited, q.Limit, q.Offset)
	if err != nil {
		return nil, translate("list articles", err)
	}
	defer rows.Close()

	for rows.Next() {
		a := &models.Article{}
		if err := rows.Scan(&a.ID, &a.Slug, &a.Title, &a.Body, &a.CreatedAt, &a.UpdatedAt, &a.Author.ID, &a.Author.UserName); err != nil {
			return nil, translate("list articles", err)
		}
		page.Articles = append(page.Articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list articles", err)
	}
	rows.Close()

	for _, a := range page.Articles {
		if err := r.loadEdges(ctx, a); err != nil {
			return nil, err
		}
	}

	return page, nil
}

func (r *PostgresRepository) exec(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return translate(op, err)
	}
	return nil
}

func (r *PostgresRepository) AddFavorite(ctx context.Context, articleID int64, userID string) error {
	return r.exec(ctx, "add favorite",
		`INSERT INTO article_favorites (article_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		articleID, userID)
}

func (r *PostgresRepository) RemoveFavorite(ctx context.Context, articleID int64, userID string) error {
	return r.exec(ctx, "remove favorite",
		`DELETE FROM article_favorites WHERE article_id = $1 AND user_id = $2`,
		articleID, userID)
}

func (r *PostgresRepository) AddTag(ctx context.Context, articleID, tagID int64) error {
	return r.exec(ctx, "add tag",
		`INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		articleID, tagID)
}

func (r *PostgresRepository) RemoveTag(ctx context.Context, articleID, tagID int64) error {
	return r.exec(ctx, "remove tag",
		`DELETE FROM article_tags WHERE article_id = $1 AND tag_id = $2`,
		articleID, tagID)
}
