package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/google/uuid"
)

type UserRepository struct {
	s    *Store
	undo *undoLog
}

// keep records how to put the user row back as it is now.
func (r *UserRepository) keep(id string) {
	prev, had := r.s.st.users[id]
	r.undo.record(func(st *state) {
		if had {
			st.users[id] = prev
		} else {
			delete(st.users, id)
		}
	})
}

// conflict reports which unique rule u would break, ignoring the row with u's own id.
func (r *UserRepository) conflict(u *models.User) error {
	for id, other := range r.s.st.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return common.ErrEmailTaken
		}
		if other.UserName == u.UserName {
			return common.ErrUsernameTaken
		}
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := r.conflict(user); err != nil {
		return nil, err
	}

	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.keep(user.ID)
	r.s.st.users[user.ID] = *user

	return user, nil
}

func (r *UserRepository) find(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.st.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.UserName == username })
}

func (r *UserRepository) List(ctx context.Context, q models.UserQuery) (*models.UserPage, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*models.User, 0, len(r.s.st.users))
	for _, u := range r.s.st.users {
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserName < all[j].UserName })

	page := &models.UserPage{Users: []*models.User{}, Total: len(all)}
	if q.Offset < len(all) {
		end := len(all)
		if q.Limit > 0 && q.Offset+q.Limit < end {
			end = q.Offset + q.Limit
		}
		page.Users = all[q.Offset:end]
	}

	return page, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.st.users[user.ID]
	if !ok {
		return nil, nil
	}
	if err := r.conflict(user); err != nil {
		return nil, err
	}

	stored.Email = user.Email
	stored.UserName = user.UserName
	stored.Bio = user.Bio
	stored.Image = user.Image
	stored.UpdatedAt = r.s.now()
	r.keep(user.ID)
	r.s.st.users[user.ID] = stored

	user.UpdatedAt = stored.UpdatedAt
	return user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := check(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.st.users[id]
	if !ok {
		return common.ErrSubjectNotFound
	}
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = r.s.now()
	r.keep(id)
	r.s.st.users[id] = stored

	return nil
}
