package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

func TestFollowLifecycle(t *testing.T) {
	db := openTestDB(t)
	store := NewRelationshipStore(db)
	ctx := context.Background()
	seedCast(t, db, "c1", model.VisibilityPrivate)

	created, err := store.CreateFollow(ctx, "c1", "g1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateFollow(ctx, "c1", "g1")
	require.NoError(t, err)
	assert.False(t, created)

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.EqualValues(t, 1, cnt)

	st, err := store.FollowStatuses(ctx, "g1", []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]model.FollowStatus{"c1": model.FollowPending}, st)

	ok, err := store.ApproveFollow(ctx, "c1", "g1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.ApproveFollow(ctx, "c1", "g1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.ApproveFollow(ctx, "c1", "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	st, err = store.FollowStatuses(ctx, "g1", []string{"c1"})
	require.NoError(t, err)
	assert.Equal(t, model.FollowApproved, st["c1"])

	require.NoError(t, store.DeleteFollow(ctx, "c1", "g1"))
	require.NoError(t, store.DeleteFollow(ctx, "c1", "g1"))
	st, err = store.FollowStatuses(ctx, "g1", []string{"c1"})
	require.NoError(t, err)
	assert.Empty(t, st)
}

func TestFollowingCastIDsByStatus(t *testing.T) {
	db := openTestDB(t)
	store := NewRelationshipStore(db)
	ctx := context.Background()

	_, _ = store.CreateFollow(ctx, "c1", "g1")
	_, _ = store.CreateFollow(ctx, "c2", "g1")
	_, _ = store.ApproveFollow(ctx, "c2", "g1")

	all, err := store.FollowingCastIDs(ctx, "g1", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, all)

	approved, err := store.FollowingCastIDs(ctx, "g1", model.FollowApproved)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, approved)
}

func TestCastBlockRemovesFollowAtomically(t *testing.T) {
	db := openTestDB(t)
	store := NewRelationshipStore(db)
	ctx := context.Background()

	_, err := store.CreateFollow(ctx, "c1", "g1")
	require.NoError(t, err)
	_, _ = store.ApproveFollow(ctx, "c1", "g1")

	require.NoError(t, store.CreateBlock(ctx, model.Block{
		BlockerID: "c1", BlockerType: model.UserCast, BlockedID: "g1", BlockedType: model.UserGuest,
	}))
	// 重复拉黑幂等
	require.NoError(t, store.CreateBlock(ctx, model.Block{
		BlockerID: "c1", BlockerType: model.UserCast, BlockedID: "g1", BlockedType: model.UserGuest,
	}))

	st, err := store.FollowStatuses(ctx, "g1", []string{"c1"})
	require.NoError(t, err)
	assert.Empty(t, st)

	_, err = store.CreateFollow(ctx, "c1", "g1")
	assert.ErrorIs(t, err, ErrBlocked)

	// unblock does not restore the follow
	require.NoError(t, store.DeleteBlock(ctx, "c1", "g1"))
	st, err = store.FollowStatuses(ctx, "g1", []string{"c1"})
	require.NoError(t, err)
	assert.Empty(t, st)

	created, err := store.CreateFollow(ctx, "c1", "g1")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestGuestBlockKeepsFollowButRefusesNewOnes(t *testing.T) {
	db := openTestDB(t)
	store := NewRelationshipStore(db)
	ctx := context.Background()

	_, _ = store.CreateFollow(ctx, "c1", "g1")
	require.NoError(t, store.CreateBlock(ctx, model.Block{
		BlockerID: "g2", BlockerType: model.UserGuest, BlockedID: "c1", BlockedType: model.UserCast,
	}))
	require.NoError(t, store.CreateBlock(ctx, model.Block{
		BlockerID: "g1", BlockerType: model.UserGuest, BlockedID: "c1", BlockedType: model.UserCast,
	}))

	st, err := store.FollowStatuses(ctx, "g1", []string{"c1"})
	require.NoError(t, err)
	assert.Len(t, st, 1)

	_, err = store.CreateFollow(ctx, "c1", "g2")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestBlockLookups(t *testing.T) {
	db := openTestDB(t)
	store := NewRelationshipStore(db)
	ctx := context.Background()

	blocks := []model.Block{
		{BlockerID: "g1", BlockerType: model.UserGuest, BlockedID: "c1", BlockedType: model.UserCast},
		{BlockerID: "g1", BlockerType: model.UserGuest, BlockedID: "g9", BlockedType: model.UserGuest},
		{BlockerID: "c2", BlockerType: model.UserCast, BlockedID: "g1", BlockedType: model.UserGuest},
	}
	for _, b := range blocks {
		require.NoError(t, store.CreateBlock(ctx, b))
	}

	casts, err := store.BlockedIDs(ctx, "g1", model.UserCast)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, casts)

	guests, err := store.BlockedIDs(ctx, "g1", model.UserGuest)
	require.NoError(t, err)
	assert.Equal(t, []string{"g9"}, guests)

	blockers, err := store.BlockerIDs(ctx, "g1", model.UserCast)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, blockers)

	either, err := store.BlockedEitherWay(ctx, "g1", []string{"c1", "c2", "c3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"c1": true, "c2": true}, either)

	empty, err := store.BlockedEitherWay(ctx, "g1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListFollowersSeekAndExclusion(t *testing.T) {
	db := openTestDB(t)
	store := NewRelationshipStore(db)
	ctx := context.Background()

	// g3 与 g2 同一时间，按 guest_id 排序打破平局
	rows := []model.Follow{
		{ID: "f1", CastID: "c1", GuestID: "g1", Status: model.FollowPending, CreatedAt: baseTime.Add(-3 * time.Minute)},
		{ID: "f2", CastID: "c1", GuestID: "g2", Status: model.FollowApproved, CreatedAt: baseTime},
		{ID: "f3", CastID: "c1", GuestID: "g3", Status: model.FollowApproved, CreatedAt: baseTime},
		{ID: "f4", CastID: "c1", GuestID: "g4", Status: model.FollowApproved, CreatedAt: baseTime.Add(-time.Minute)},
		{ID: "f5", CastID: "c2", GuestID: "g1", Status: model.FollowApproved, CreatedAt: baseTime},
	}
	require.NoError(t, db.Create(&rows).Error)
	require.NoError(t, db.Create(&model.Block{ID: "b1", BlockerID: "c1", BlockerType: model.UserCast, BlockedID: "g4", BlockedType: model.UserGuest, CreatedAt: baseTime}).Error)

	page, err := store.ListFollowers(ctx, "c1", nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "g3", page[0].GuestID)
	assert.Equal(t, "g2", page[1].GuestID)

	after := &cursor.Position{CreatedAt: page[1].CreatedAt, ID: page[1].GuestID}
	page, err = store.ListFollowers(ctx, "c1", after, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "g1", page[0].GuestID)

	following, err := store.ListFollowing(ctx, "g1", nil, 10)
	require.NoError(t, err)
	require.Len(t, following, 2)
	assert.Equal(t, "c2", following[0].CastID)
}

func TestListBlocksNewestFirst(t *testing.T) {
	db := openTestDB(t)
	store := NewRelationshipStore(db)
	ctx := context.Background()

	for i, id := range []string{"x1", "x2", "x3"} {
		require.NoError(t, store.CreateBlock(ctx, model.Block{
			BlockerID: "g1", BlockerType: model.UserGuest, BlockedID: id, BlockedType: model.UserGuest,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Second),
		}))
	}
	page, err := store.ListBlocks(ctx, "g1", nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "x3", page[0].BlockedID)
	assert.Equal(t, "x2", page[1].BlockedID)

	page, err = store.ListBlocks(ctx, "g1", &cursor.Position{CreatedAt: page[1].CreatedAt, ID: page[1].BlockedID}, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "x1", page[0].BlockedID)
}

func TestFavorites(t *testing.T) {
	db := openTestDB(t)
	store := NewRelationshipStore(db)
	ctx := context.Background()

	require.NoError(t, store.AddFavorite(ctx, "c1", "g1"))
	require.NoError(t, store.AddFavorite(ctx, "c1", "g1"))
	require.NoError(t, store.AddFavorite(ctx, "c2", "g1"))

	ids, err := store.FavoriteCastIDs(ctx, "g1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)

	require.NoError(t, store.RemoveFavorite(ctx, "c2", "g1"))
	require.NoError(t, store.RemoveFavorite(ctx, "c2", "g1"))

	st, err := store.FavoriteStatuses(ctx, "g1", []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"c1": true, "c2": false}, st)

	// 收藏不产生关注
	follows, err := store.FollowStatuses(ctx, "g1", []string{"c1"})
	require.NoError(t, err)
	assert.Empty(t, follows)
}
