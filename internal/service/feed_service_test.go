package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

func ids(posts []model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

// seedFeed:
//
//	A public, B public, C private (g1 approved follower), D public but blocks g1
//	g1 favorites B and C
func seedFeed(t *testing.T) *env {
	e := newEnv(t)
	ctx := context.Background()
	e.cast(t, "A", model.VisibilityPublic)
	e.cast(t, "B", model.VisibilityPublic)
	e.cast(t, "C", model.VisibilityPrivate)
	e.cast(t, "D", model.VisibilityPublic)
	e.guest(t, "g1")
	e.guest(t, "g2")

	e.post(t, "A1", "A", model.VisibilityPublic, baseTime.Add(-1*time.Minute))
	e.post(t, "A2", "A", model.VisibilityPrivate, baseTime.Add(-2*time.Minute))
	e.post(t, "B1", "B", model.VisibilityPublic, baseTime.Add(-3*time.Minute))
	e.post(t, "C1", "C", model.VisibilityPublic, baseTime.Add(-4*time.Minute))
	e.post(t, "C2", "C", model.VisibilityPrivate, baseTime.Add(-5*time.Minute))
	e.post(t, "D1", "D", model.VisibilityPublic, baseTime.Add(-6*time.Minute))

	require.NoError(t, e.relSvc.Follow(ctx, "C", "g1"))
	_, err := e.relSvc.ApproveFollow(ctx, "C", "g1")
	require.NoError(t, err)
	require.NoError(t, e.relSvc.AddFavorite(ctx, "B", "g1"))
	require.NoError(t, e.relSvc.AddFavorite(ctx, "C", "g1"))
	require.NoError(t, e.relSvc.Block(ctx, castRef("D"), guestRef("g1")))
	return e
}

func TestListGuestFeedFilters(t *testing.T) {
	e := seedFeed(t)
	ctx := context.Background()

	page, err := e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1", "C1", "C2"}, ids(page.Posts))
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
	assert.Len(t, page.Authors, 3)
	assert.Equal(t, "cast C", page.Authors["C"].Name)

	page, err = e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g1", Filter: model.FeedFollowing})
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, ids(page.Posts))

	page, err = e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g1", Filter: model.FeedFavorites})
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "C1"}, ids(page.Posts), "favorites only carry public posts")

	page, err = e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1", "D1"}, ids(page.Posts), "private cast hidden without approval")
}

func TestListGuestFeedPaginates(t *testing.T) {
	e := seedFeed(t)
	ctx := context.Background()

	first, err := e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g1", PageRequest: PageRequest{Limit: 3}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1", "C1"}, ids(first.Posts))
	require.True(t, first.HasMore)
	require.NotNil(t, first.NextCursor)

	pos := cursor.DecodePosition(*first.NextCursor)
	require.NotNil(t, pos)
	assert.Equal(t, "C1", pos.ID)

	second, err := e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g1", PageRequest: PageRequest{Limit: 3, Cursor: *first.NextCursor}})
	require.NoError(t, err)
	assert.Equal(t, []string{"C2"}, ids(second.Posts))
	assert.False(t, second.HasMore)
	assert.Equal(t, map[string]model.Profile{"C": second.Authors["C"]}, second.Authors)

	restarted, err := e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g1", PageRequest: PageRequest{Limit: 3, Cursor: "not-base64!!!"}})
	require.NoError(t, err)
	assert.Equal(t, ids(first.Posts), ids(restarted.Posts), "bad cursor restarts from the first page")
}

func TestListGuestFeedHonoursGuestBlocks(t *testing.T) {
	e := seedFeed(t)
	ctx := context.Background()
	require.NoError(t, e.relSvc.Block(ctx, guestRef("g1"), castRef("A")))

	page, err := e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "C1", "C2"}, ids(page.Posts))

	require.NoError(t, e.relSvc.Block(ctx, guestRef("g2"), castRef("B")))
	page, err = e.feed.ListGuestFeed(ctx, GuestFeedRequest{GuestID: "g1", BlockerID: "g2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, ids(page.Posts))
}

type countingPosts struct {
	repository.ContentStore
	calls int
}

func (c *countingPosts) ListPostsByCastIDs(ctx context.Context, q repository.PostQuery) ([]model.Post, error) {
	c.calls++
	return c.ContentStore.ListPostsByCastIDs(ctx, q)
}

func TestFollowingFeedShortCircuits(t *testing.T) {
	e := seedFeed(t)
	posts := &countingPosts{ContentStore: e.posts}
	feed := NewFeedService(e.rel, e.users, posts, e.users, e.policy, DefaultPaging)

	page, err := feed.ListGuestFeed(context.Background(), GuestFeedRequest{GuestID: "g2", Filter: model.FeedFollowing})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.NotNil(t, page.Posts)
	assert.False(t, page.HasMore)
	assert.Zero(t, posts.calls)
}

func TestListCastFeedIsUnfiltered(t *testing.T) {
	e := seedFeed(t)
	ctx := context.Background()

	page, err := e.feed.ListCastFeed(ctx, "C", PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, ids(page.Posts))
	assert.Len(t, page.Authors, 1)

	_, err = e.feed.ListCastFeed(ctx, "nope", PageRequest{})
	assert.ErrorIs(t, err, ErrCastNotFound)
}

func TestListFollowersFollowingAndBlocked(t *testing.T) {
	e := seedFeed(t)
	ctx := context.Background()
	e.guest(t, "g3")
	require.NoError(t, e.relSvc.Follow(ctx, "C", "g2"))
	require.NoError(t, e.relSvc.Follow(ctx, "C", "g3"))
	require.NoError(t, e.relSvc.Block(ctx, castRef("C"), guestRef("g3")))

	followers, err := e.feed.ListFollowers(ctx, "C", PageRequest{})
	require.NoError(t, err)
	require.Len(t, followers.Items, 2)
	byID := map[string]Follower{}
	for _, f := range followers.Items {
		byID[f.GuestID] = f
	}
	assert.Equal(t, model.FollowApproved, byID["g1"].Status)
	assert.Equal(t, model.FollowPending, byID["g2"].Status)
	require.NotNil(t, byID["g2"].Profile)
	assert.Equal(t, "guest g2", byID["g2"].Profile.Name)

	first, err := e.feed.ListFollowers(ctx, "C", PageRequest{Limit: 1})
	require.NoError(t, err)
	require.True(t, first.HasMore)
	rest, err := e.feed.ListFollowers(ctx, "C", PageRequest{Limit: 1, Cursor: *first.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.NotEqual(t, first.Items[0].GuestID, rest.Items[0].GuestID)
	assert.False(t, rest.HasMore)

	following, err := e.feed.ListFollowing(ctx, "g1", PageRequest{})
	require.NoError(t, err)
	require.Len(t, following.Items, 1)
	assert.Equal(t, "C", following.Items[0].CastID)
	assert.Equal(t, "cast C", following.Items[0].Profile.Name)

	require.NoError(t, e.relSvc.Block(ctx, guestRef("g1"), castRef("A")))
	require.NoError(t, e.relSvc.Block(ctx, guestRef("g1"), guestRef("g2")))
	blocked, err := e.feed.ListBlocked(ctx, "g1", PageRequest{})
	require.NoError(t, err)
	require.Len(t, blocked.Items, 2)
	names := map[string]string{}
	for _, b := range blocked.Items {
		names[b.ID] = b.Name
	}
	assert.Equal(t, map[string]string{"A": "cast A", "g2": "guest g2"}, names)
}
