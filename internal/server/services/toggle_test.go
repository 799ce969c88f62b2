package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/logging"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorite_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "a@x.com", "alice")
	a := f.article(t, alice, "Dragons")

	first, err := f.favorites.Favorite(ctx, alice.ID, a.ID)
	require.NoError(t, err)
	second, err := f.favorites.Favorite(ctx, alice.ID, a.ID)
	require.NoError(t, err)

	want := []models.UserRef{{ID: alice.ID, UserName: "alice"}}
	assert.Equal(t, want, first.FavoritedBy)
	assert.Equal(t, want, second.FavoritedBy)

	removed, err := f.favorites.Unfavorite(ctx, alice.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, removed.FavoritedBy)

	removed, err = f.favorites.Unfavorite(ctx, alice.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, removed.FavoritedBy)
}

func TestFavorite_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "a@x.com", "alice")
	a := f.article(t, alice, "Dragons")

	_, err := f.favorites.Favorite(ctx, alice.ID, 999)
	require.ErrorIs(t, err, common.ErrTargetNotFound)

	_, err = f.favorites.Favorite(ctx, "ghost", a.ID)
	require.ErrorIs(t, err, common.ErrSubjectNotFound)

	_, err = f.favorites.Unfavorite(ctx, "ghost", a.ID)
	require.ErrorIs(t, err, common.ErrSubjectNotFound)

	_, err = f.favorites.Unfavorite(ctx, alice.ID, 999)
	require.ErrorIs(t, err, common.ErrTargetNotFound)
}

func TestFavorite_KeepsOtherEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "a@x.com", "alice")
	bob := f.register(t, "b@x.com", "bob")
	a := f.article(t, alice, "Dragons", "fantasy")

	_, err := f.favorites.Favorite(ctx, alice.ID, a.ID)
	require.NoError(t, err)
	got, err := f.favorites.Favorite(ctx, bob.ID, a.ID)
	require.NoError(t, err)
	assert.Len(t, got.FavoritedBy, 2)
	assert.Equal(t, []string{"fantasy"}, got.TagNames())

	got, err = f.favorites.Unfavorite(ctx, bob.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.UserRef{{ID: alice.ID, UserName: "alice"}}, got.FavoritedBy)
}

func TestFavorite_ConcurrentAddsLeaveOneEdge(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x.com", "alice")
	a := f.article(t, alice, "Dragons")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.favorites.Favorite(context.Background(), alice.ID, a.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.articles.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, got.FavoritedBy, 1)
}

func TestTags_FindOrCreateAndToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "a@x.com", "alice")
	bob := f.register(t, "b@x.com", "bob")
	a := f.article(t, alice, "Dragons")
	other := f.article(t, bob, "Training")

	got, err := f.tags.AddTag(ctx, a.ID, " dragons ")
	require.NoError(t, err)
	assert.Equal(t, []string{"dragons"}, got.TagNames())

	got, err = f.tags.AddTag(ctx, a.ID, "dragons")
	require.NoError(t, err)
	assert.Equal(t, []string{"dragons"}, got.TagNames())

	// The tag is shared, not duplicated.
	_, err = f.tags.AddTag(ctx, other.ID, "dragons")
	require.NoError(t, err)
	list, err := f.tags.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err = f.tags.RemoveTag(ctx, a.ID, "dragons")
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	got, err = f.tags.RemoveTag(ctx, a.ID, "dragons")
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	// Unknown tags are absent edges.
	got, err = f.tags.RemoveTag(ctx, a.ID, "never-created")
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
	list, err = f.tags.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTags_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tags.AddTag(ctx, 1, "  ")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = f.tags.AddTag(ctx, 42, "go")
	require.ErrorIs(t, err, common.ErrTargetNotFound)

	_, err = f.tags.RemoveTag(ctx, 42, "go")
	require.ErrorIs(t, err, common.ErrTargetNotFound)
}

func TestToggle_StorageOutage(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x.com", "alice")
	a := f.article(t, alice, "Dragons")

	// Article reads go to the real store; user lookups fail.
	s := NewFavoriteService(outageManager{RepositoryManager: f.rm}, logging.Nop{})

	_, err := s.Favorite(context.Background(), alice.ID, a.ID)
	require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}
