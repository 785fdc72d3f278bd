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

func strPtr(s string) *string { return &s }

func TestCommentRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	top := &model.Comment{ID: "t1", PostID: "p1", UserID: "g1", UserType: model.UserGuest, Content: "first", CreatedAt: baseTime}
	require.NoError(t, repo.CreateComment(ctx, top))
	require.NoError(t, repo.CreateComment(ctx, &model.Comment{
		ID: "t2", PostID: "p1", UserID: "g2", UserType: model.UserGuest, CreatedAt: baseTime.Add(time.Second),
		Media: []model.CommentMedia{
			{ID: "m2", MediaID: "img-2", MediaType: model.MediaImage, Position: 1},
			{ID: "m1", MediaID: "img-1", MediaType: model.MediaImage, Position: 0},
		},
	}))
	require.NoError(t, repo.CreateComment(ctx, &model.Comment{
		ID: "r1", PostID: "p1", ParentID: strPtr("t1"), UserID: "c1", UserType: model.UserCast, Content: "reply", CreatedAt: baseTime.Add(2 * time.Second),
	}))

	got, err := repo.GetComment(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "t1", *got.ParentID)

	list, err := repo.ListComments(ctx, CommentQuery{PostID: "p1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t2", list[0].ID)
	require.Len(t, list[0].Media, 2)
	assert.Equal(t, "img-1", list[0].Media[0].MediaID)

	list, err = repo.ListComments(ctx, CommentQuery{PostID: "p1", ExcludeUserIDs: []string{"g2"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "t1", list[0].ID)

	list, err = repo.ListComments(ctx, CommentQuery{PostID: "p1", Limit: 10, After: &cursor.Position{CreatedAt: baseTime.Add(time.Second), ID: "t2"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "t1", list[0].ID)

	replies, err := repo.ListComments(ctx, CommentQuery{ParentID: "t1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "r1", replies[0].ID)

	require.NoError(t, repo.DeleteComment(ctx, "t1"))
	_, err = repo.GetComment(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetComment(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteComment(ctx, "t2"))
	var media int64
	require.NoError(t, db.Model(&model.CommentMedia{}).Count(&media).Error)
	assert.Zero(t, media)
}
