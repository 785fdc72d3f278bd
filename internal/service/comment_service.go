package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

const (
	MaxCommentRunes = 1000
	MaxCommentMedia = 3
)

// MediaInput 新评论附带的媒体
type MediaInput struct {
	MediaID string          `json:"media_id" binding:"required"`
	Type    model.MediaType `json:"type" binding:"required"`
}

// AddCommentInput 发表评论参数，ParentID 为空表示一级评论
type AddCommentInput struct {
	PostID   string
	ParentID string
	Author   model.UserRef
	Content  string
	Media    []MediaInput
}

// CommentListRequest lists top-level comments of PostID, or replies of
// ParentID when set.
type CommentListRequest struct {
	PostID         string
	ParentID       string
	ViewerID       string
	ExcludeUserIDs []string
	PageRequest
}

// MediaView 评论附件
type MediaView struct {
	MediaID string          `json:"media_id"`
	Type    model.MediaType `json:"type"`
	MediaURL
}

// CommentView 评论展示结构
type CommentView struct {
	ID        string        `json:"id"`
	PostID    string        `json:"post_id"`
	ParentID  *string       `json:"parent_id,omitempty"`
	Author    model.Profile `json:"author"`
	Content   string        `json:"content"`
	Media     []MediaView   `json:"media"`
	CreatedAt time.Time     `json:"created_at"`
}

// CommentService 评论读写，评论最多一层回复
type CommentService interface {
	ListComments(ctx context.Context, req CommentListRequest) (cursor.Page[CommentView], error)
	ListReplies(ctx context.Context, req CommentListRequest) (cursor.Page[CommentView], error)
	AddComment(ctx context.Context, in AddCommentInput) (*CommentView, error)
	DeleteComment(ctx context.Context, commentID string, by model.UserRef) error
}

type commentService struct {
	comments repository.CommentStore
	posts    repository.ContentStore
	users    repository.UserRepository
	policy   *VisibilityPolicy
	authors  AuthorResolver
	media    MediaResolver
	paging   Paging
	now      func() time.Time
}

func NewCommentService(
	comments repository.CommentStore,
	posts repository.ContentStore,
	users repository.UserRepository,
	policy *VisibilityPolicy,
	authors AuthorResolver,
	media MediaResolver,
	paging Paging,
) CommentService {
	return &commentService{
		comments: comments,
		posts:    posts,
		users:    users,
		policy:   policy,
		authors:  authors,
		media:    media,
		paging:   paging,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// visiblePost loads the post and checks the viewer may see it. Hidden and
// missing posts both return ErrPostNotFound.
func (s *commentService) visiblePost(ctx context.Context, postID, viewerID string) (*model.Post, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, storeFailure(ctx, "get post", err)
	}
	cast, err := s.users.GetCast(ctx, post.CastID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, storeFailure(ctx, "get cast", err)
	}
	ok, err := s.policy.CanViewPost(ctx, post, cast, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *commentService) ListComments(ctx context.Context, req CommentListRequest) (cursor.Page[CommentView], error) {
	if err := requireIDs(req.PostID); err != nil {
		return cursor.Page[CommentView]{}, err
	}
	if _, err := s.visiblePost(ctx, req.PostID, req.ViewerID); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return cursor.Page[CommentView]{Items: []CommentView{}}, nil
		}
		return cursor.Page[CommentView]{}, err
	}
	return s.list(ctx, repository.CommentQuery{PostID: req.PostID, ExcludeUserIDs: req.ExcludeUserIDs}, req.PageRequest)
}

func (s *commentService) ListReplies(ctx context.Context, req CommentListRequest) (cursor.Page[CommentView], error) {
	if err := requireIDs(req.ParentID); err != nil {
		return cursor.Page[CommentView]{}, err
	}
	parent, err := s.comments.GetComment(ctx, req.ParentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return cursor.Page[CommentView]{}, ErrCommentNotFound
		}
		return cursor.Page[CommentView]{}, storeFailure(ctx, "get comment", err)
	}
	if _, err := s.visiblePost(ctx, parent.PostID, req.ViewerID); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return cursor.Page[CommentView]{Items: []CommentView{}}, nil
		}
		return cursor.Page[CommentView]{}, err
	}
	return s.list(ctx, repository.CommentQuery{ParentID: parent.ID, ExcludeUserIDs: req.ExcludeUserIDs}, req.PageRequest)
}

func (s *commentService) list(ctx context.Context, q repository.CommentQuery, req PageRequest) (cursor.Page[CommentView], error) {
	limit := s.paging.normalize(req.Limit)
	q.After = cursor.DecodePosition(req.Cursor)
	q.Limit = limit + 1
	rows, err := s.comments.ListComments(ctx, q)
	if err != nil {
		return cursor.Page[CommentView]{}, storeFailure(ctx, "list comments", err)
	}
	page := cursor.Paginate(rows, limit, func(c model.Comment) cursor.Fields {
		return positionCursor(c.CreatedAt, c.ID)
	})
	views, err := s.views(ctx, page.Items)
	if err != nil {
		return cursor.Page[CommentView]{}, err
	}
	return cursor.Page[CommentView]{Items: views, HasMore: page.HasMore, NextCursor: page.NextCursor}, nil
}

// views 一页评论只做一次作者批量查询和一次媒体解析
func (s *commentService) views(ctx context.Context, comments []model.Comment) ([]CommentView, error) {
	refs := make([]model.UserRef, 0, len(comments))
	seen := make(map[model.UserRef]struct{}, len(comments))
	var media []model.CommentMedia
	for _, c := range comments {
		ref := model.UserRef{ID: c.UserID, Type: c.UserType}
		if _, ok := seen[ref]; !ok {
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
		media = append(media, c.Media...)
	}

	profiles, err := s.authors.LoadProfiles(ctx, refs)
	if err != nil {
		return nil, storeFailure(ctx, "load authors", err)
	}
	urls := map[string]MediaURL{}
	if len(media) > 0 {
		if urls, err = s.media.Resolve(ctx, media); err != nil {
			return nil, storeFailure(ctx, "resolve media", err)
		}
	}

	out := make([]CommentView, len(comments))
	for i, c := range comments {
		ref := model.UserRef{ID: c.UserID, Type: c.UserType}
		author, ok := profiles[ref]
		if !ok {
			author = model.Profile{ID: c.UserID, Type: c.UserType}
		}
		mv := make([]MediaView, len(c.Media))
		for j, m := range c.Media {
			mv[j] = MediaView{MediaID: m.MediaID, Type: m.MediaType, MediaURL: urls[m.MediaID]}
		}
		out[i] = CommentView{
			ID:        c.ID,
			PostID:    c.PostID,
			ParentID:  c.ParentID,
			Author:    author,
			Content:   c.Content,
			Media:     mv,
			CreatedAt: c.CreatedAt,
		}
	}
	return out, nil
}

func validateCommentBody(content string, media []MediaInput) error {
	if len(media) > MaxCommentMedia {
		return ErrTooManyMedia
	}
	if utf8.RuneCountInString(content) > MaxCommentRunes {
		return ErrContentTooLong
	}
	if strings.TrimSpace(content) == "" && len(media) == 0 {
		return ErrEmptyContent
	}
	for _, m := range media {
		if strings.TrimSpace(m.MediaID) == "" || m.Type == 0 {
			return ErrInvalidArgument
		}
	}
	return nil
}

func (s *commentService) AddComment(ctx context.Context, in AddCommentInput) (*CommentView, error) {
	if err := requireIDs(in.PostID, in.Author.ID); err != nil {
		return nil, err
	}
	if in.Author.Type == 0 {
		return nil, ErrInvalidArgument
	}
	if err := validateCommentBody(in.Content, in.Media); err != nil {
		return nil, err
	}

	ok, err := s.users.Exists(ctx, in.Author)
	if err != nil {
		return nil, storeFailure(ctx, "check user", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	post, err := s.visiblePost(ctx, in.PostID, in.Author.ID)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if in.ParentID != "" {
		parent, err := s.comments.GetComment(ctx, in.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, storeFailure(ctx, "get parent", err)
		}
		if parent.PostID != post.ID {
			return nil, ErrParentNotFound
		}
		if parent.ParentID != nil {
			return nil, ErrCannotReplyToReply
		}
		parentID = &parent.ID
	}

	c := &model.Comment{
		ID:        uuid.New().String(),
		PostID:    post.ID,
		ParentID:  parentID,
		UserID:    in.Author.ID,
		UserType:  in.Author.Type,
		Content:   strings.TrimSpace(in.Content),
		CreatedAt: s.now(),
	}
	for i, m := range in.Media {
		c.Media = append(c.Media, model.CommentMedia{
			ID:        uuid.New().String(),
			MediaID:   m.MediaID,
			MediaType: m.Type,
			Position:  i,
		})
	}
	if err := s.comments.CreateComment(ctx, c); err != nil {
		return nil, storeFailure(ctx, "create comment", err)
	}

	views, err := s.views(ctx, []model.Comment{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *commentService) DeleteComment(ctx context.Context, commentID string, by model.UserRef) error {
	if err := requireIDs(commentID, by.ID); err != nil {
		return err
	}
	c, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return storeFailure(ctx, "get comment", err)
	}
	if c.UserID != by.ID || c.UserType != by.Type {
		return ErrNotCommentAuthor
	}
	if err := s.comments.DeleteComment(ctx, c.ID); err != nil {
		return storeFailure(ctx, "delete comment", err)
	}
	return nil
}
