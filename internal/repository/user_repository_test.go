package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/castgraph/internal/model"
)

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	seedCast(t, db, "c1", model.VisibilityPublic)
	seedCast(t, db, "c2", model.VisibilityPrivate)
	seedGuest(t, db, "g1")
	repo := NewUserRepository(db)
	ctx := context.Background()

	c, err := repo.GetCast(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, model.VisibilityPrivate, c.Visibility)

	_, err = repo.GetCast(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	casts, err := repo.GetCasts(ctx, []string{"c1", "c2", "nope"})
	require.NoError(t, err)
	assert.Len(t, casts, 2)

	pub, err := repo.PublicCastIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, pub)

	ok, err := repo.Exists(ctx, model.UserRef{ID: "g1", Type: model.UserGuest})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, model.UserRef{ID: "g1", Type: model.UserCast})
	require.NoError(t, err)
	assert.False(t, ok)

	profiles, err := repo.LoadProfiles(ctx, []model.UserRef{
		{ID: "c1", Type: model.UserCast},
		{ID: "g1", Type: model.UserGuest},
		{ID: "ghost", Type: model.UserGuest},
	})
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "cast c1", profiles[model.UserRef{ID: "c1", Type: model.UserCast}].Name)
	assert.Equal(t, "guest g1", profiles[model.UserRef{ID: "g1", Type: model.UserGuest}].Name)
}
