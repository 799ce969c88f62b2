package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conduit")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(dir)
	s.now = func() time.Time { return now }

	_, err := s.Load()
	require.ErrorIs(t, err, ErrNoSession)

	in := &Session{Email: "a@x.com", Username: "alice", Token: "tok", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Save(in))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, in, got)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	_, err = s.Load()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStore_ExpiredSession(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(t.TempDir())
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(&Session{Token: "tok", ExpiresAt: now}))

	_, err := s.Load()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("{"), 0o600))

	_, err := NewStore(dir).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}
