// Package session persists the client's login between CLI invocations.
package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/conduit/internal/filex"
)

// ErrNoSession is returned when no usable session is stored.
var ErrNoSession = errors.New("not logged in")

const fileName = "session.json"

// Session is a stored login. Token is a bearer credential; the file holding
// it is only readable by the owner.
type Session struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session can no longer be used at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, fileName)
}

func (s *Store) Save(sess *Session) error {
	if _, err := filex.EnsureDir(s.dir); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return filex.WritePrivateFile(s.path(), data)
}

// Load returns the stored session. Missing and expired sessions yield
// ErrNoSession.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.Token == "" || sess.Expired(s.now()) {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Clear removes the stored session; clearing an absent session succeeds.
func (s *Store) Clear() error {
	err := os.Remove(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
