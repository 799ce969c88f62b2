package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/dbx"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

type PostgresRepository struct {
	db      dbx.DBTX
	timeout time.Duration
}

// NewPostgresRepository binds the repository to db. Every call is bounded by
// timeout; zero means no bound beyond the caller's context.
func NewPostgresRepository(db dbx.DBTX, timeout time.Duration) *PostgresRepository {
	return &PostgresRepository{db: db, timeout: timeout}
}

const userColumns = `id, email, username, password_hash, bio, image, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.UserName, &u.PasswordHash, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// translate maps unique violations to the registration conflicts and
// everything else to a classified, wrapped db error.
func translate(op string, err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		switch constraint {
		case EmailConstraint:
			return common.ErrEmailTaken
		case UsernameConstraint:
			return common.ErrUsernameTaken
		}
	}
	return oops.Code("DB_ERROR").With("operation", op).Wrapf(dbx.Classify(err), "db error")
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, email, username, password_hash, bio, image)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.UserName, user.PasswordHash, user.Bio, user.Image).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translate("create user", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, op, query string, arg any) (*models.User, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translate(op, err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	// A subject that is not a uuid cannot name a stored user.
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	return r.getOne(ctx, "get user by id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "get user by email",
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "get user by username",
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresRepository) List(ctx context.Context, q models.UserQuery) (*models.UserPage, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	page := &models.UserPage{Users: []*models.User{}}

	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&page.Total); err != nil {
		return nil, translate("count users", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username LIMIT $1 OFFSET $2`, q.Limit, q.Offset)
	if err != nil {
		return nil, translate("list users", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate("list users", err)
		}
		page.Users = append(page.Users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list users", err)
	}

	return page, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	query :=
		`UPDATE users SET email = $2, username = $3, bio = $4, image = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.UserName, user.Bio, user.Image).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translate("update user", err)
	}

	return user, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ctx, cancel := dbx.WithTimeout(ctx, r.timeout)
	defer cancel()

	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return translate("update password", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return translate("update password", err)
	}
	if n == 0 {
		return common.ErrSubjectNotFound
	}

	return nil
}
