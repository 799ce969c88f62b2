package tags

import (
	"context"
	"database/sql"
	"errors"
	"time"

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

func wrap(op string, err error) error {
	return oops.Code("DB_ERROR").With("operation", op).Wrapf(dbx.Classify(err), "db error")
}

func (r *PostgresRepository) FindOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	// The no-op update makes RETURNING yield the existing row on conflict.
	query :=
		`INSERT INTO tags (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name
		 `

	tag := &models.Tag{}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&tag.ID, &tag.Name); err != nil {
		return nil, wrap("find or create tag", err)
	}

	return tag, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag := &models.Tag{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE name = $1`, name).Scan(&tag.ID, &tag.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("find tag", err)
	}

	return tag, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Tag, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, wrap("list tags", err)
	}
	defer rows.Close()

	result := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, wrap("list tags", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list tags", err)
	}

	return result, nil
}
