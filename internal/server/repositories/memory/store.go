// Package memory implements the repositories on an in-process store. It backs
// storage=memory runs and service tests, and enforces the same uniqueness
// rules as the PostgreSQL schema.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/server/models"
)

type article struct {
	id        int64
	slug      string
	title     string
	body      string
	authorID  string
	createdAt time.Time
	updatedAt time.Time
}

type state struct {
	users       map[string]models.User
	articles    map[int64]article
	tags        map[int64]models.Tag
	favorites   map[int64]map[string]struct{}
	articleTags map[int64]map[int64]struct{}
	nextArticle int64
	nextTag     int64
}

func newState() state {
	return state{
		users:       map[string]models.User{},
		articles:    map[int64]article{},
		tags:        map[int64]models.Tag{},
		favorites:   map[int64]map[string]struct{}{},
		articleTags: map[int64]map[int64]struct{}{},
	}
}

// Store holds all entities. Each repository call takes the lock for the
// duration of that single call only.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// Users, Articles and Tags return repositories bound to the store.
func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }
func (s *Store) Articles() *ArticleRepository { return &ArticleRepository{s: s} }
func (s *Store) Tags() *TagRepository         { return &TagRepository{s: s} }

// undoLog holds the inverse of every write made through a Tx, in order.
// It is only touched with Store.mu held.
type undoLog struct {
	ops []func(st *state)
}

func (l *undoLog) record(op func(st *state)) {
	if l != nil {
		l.ops = append(l.ops, op)
	}
}

// Tx exposes repositories whose writes are reverted if the atomic section
// that created it fails.
type Tx struct {
	s    *Store
	undo *undoLog
}

func (t *Tx) Users() *UserRepository       { return &UserRepository{s: t.s, undo: t.undo} }
func (t *Tx) Articles() *ArticleRepository { return &ArticleRepository{s: t.s, undo: t.undo} }
func (t *Tx) Tags() *TagRepository         { return &TagRepository{s: t.s, undo: t.undo} }

// Atomically runs fn and, if it fails, reverts the writes fn made through
// tx in reverse order. Writes made outside tx, by any goroutine, are kept.
// Atomic sections are serialized with each other.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &Tx{s: s, undo: &undoLog{}}
	if err := fn(ctx, tx); err != nil {
		s.mu.Lock()
		for i := len(tx.undo.ops) - 1; i >= 0; i-- {
			tx.undo.ops[i](&s.st)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return common.Unavailable(err)
	}
	return nil
}
