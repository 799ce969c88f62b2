package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/conduit/internal/server/models"
)

type TagRepository struct {
	s    *Store
	undo *undoLog
}

func (r *TagRepository) lookup(name string) (models.Tag, bool) {
	for _, t := range r.s.st.tags {
		if t.Name == name {
			return t, true
		}
	}
	return models.Tag{}, false
}

func (r *TagRepository) FindOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.lookup(name); ok {
		return &t, nil
	}

	r.s.st.nextTag++
	t := models.Tag{ID: r.s.st.nextTag, Name: name}
	r.s.st.tags[t.ID] = t

	// A tag others attached in the meantime stays.
	r.undo.record(func(st *state) {
		for _, attached := range st.articleTags {
			if _, ok := attached[t.ID]; ok {
				return
			}
		}
		delete(st.tags, t.ID)
	})

	return &t, nil
}

func (r *TagRepository) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if t, ok := r.lookup(name); ok {
		return &t, nil
	}
	return nil, nil
}

func (r *TagRepository) List(ctx context.Context) ([]models.Tag, error) {
	if err := check(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]models.Tag, 0, len(r.s.st.tags))
	for _, t := range r.s.st.tags {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}
