package service

import (
	"context"
	"errors"
	"time"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

// PostPage 动态列表一页，authors 以 cast id 为键
type PostPage struct {
	Posts      []model.Post             `json:"posts"`
	HasMore    bool                     `json:"has_more"`
	NextCursor *string                  `json:"next_cursor,omitempty"`
	Authors    map[string]model.Profile `json:"authors"`
}

// GuestFeedRequest selects a guest's feed. BlockerID defaults to GuestID.
type GuestFeedRequest struct {
	GuestID   string
	Filter    model.FeedFilter
	BlockerID string
	PageRequest
}

// Follower 粉丝列表项
type Follower struct {
	GuestID    string             `json:"guest_id"`
	Status     model.FollowStatus `json:"status"`
	FollowedAt time.Time          `json:"followed_at"`
	Profile    *model.Profile     `json:"profile,omitempty"`
}

// Following 关注列表项
type Following struct {
	CastID     string             `json:"cast_id"`
	Status     model.FollowStatus `json:"status"`
	FollowedAt time.Time          `json:"followed_at"`
	Profile    *model.Profile     `json:"profile,omitempty"`
}

// BlockedUser 拉黑列表项，资料按页批量解析
type BlockedUser struct {
	ID        string         `json:"id"`
	Type      model.UserType `json:"type"`
	Name      string         `json:"name"`
	AvatarURL string         `json:"avatar_url"`
	BlockedAt time.Time      `json:"blocked_at"`
}

// FeedService composes the cursor-paginated lists: feeds, followers,
// following and blocked users.
type FeedService interface {
	ListGuestFeed(ctx context.Context, req GuestFeedRequest) (*PostPage, error)
	ListCastFeed(ctx context.Context, castID string, page PageRequest) (*PostPage, error)
	ListFollowers(ctx context.Context, castID string, page PageRequest) (cursor.Page[Follower], error)
	ListFollowing(ctx context.Context, guestID string, page PageRequest) (cursor.Page[Following], error)
	ListBlocked(ctx context.Context, blockerID string, page PageRequest) (cursor.Page[BlockedUser], error)
}

type feedService struct {
	rel     repository.RelationshipStore
	users   repository.UserRepository
	posts   repository.ContentStore
	authors AuthorResolver
	policy  *VisibilityPolicy
	paging  Paging
}

func NewFeedService(
	rel repository.RelationshipStore,
	users repository.UserRepository,
	posts repository.ContentStore,
	authors AuthorResolver,
	policy *VisibilityPolicy,
	paging Paging,
) FeedService {
	return &feedService{rel: rel, users: users, posts: posts, authors: authors, policy: policy, paging: paging}
}

func postCursor(p model.Post) cursor.Fields { return positionCursor(p.CreatedAt, p.ID) }

func emptyPostPage() *PostPage {
	return &PostPage{Posts: []model.Post{}, Authors: map[string]model.Profile{}}
}

func (s *feedService) ListGuestFeed(ctx context.Context, req GuestFeedRequest) (*PostPage, error) {
	if err := requireIDs(req.GuestID); err != nil {
		return nil, err
	}
	filter := req.Filter
	if filter == 0 {
		filter = model.FeedAll
	}
	limit := s.paging.normalize(req.Limit)

	scope, err := s.policy.ScopeFor(ctx, req.GuestID, req.BlockerID)
	if err != nil {
		return nil, err
	}

	q := repository.PostQuery{
		FullAccessCastIDs: scope.FullAccess,
		ExcludeCastIDs:    scope.Hidden,
		After:             cursor.DecodePosition(req.Cursor),
		Limit:             limit + 1,
	}

	switch filter {
	case model.FeedAll:
		public, err := s.users.PublicCastIDs(ctx)
		if err != nil {
			return nil, storeFailure(ctx, "public casts", err)
		}
		following, err := s.rel.FollowingCastIDs(ctx, req.GuestID, 0)
		if err != nil {
			return nil, storeFailure(ctx, "following casts", err)
		}
		q.CastIDs = minus(append(public, following...), scope.Hidden)
	case model.FeedFollowing:
		following, err := s.rel.FollowingCastIDs(ctx, req.GuestID, 0)
		if err != nil {
			return nil, storeFailure(ctx, "following casts", err)
		}
		q.CastIDs = minus(following, scope.Hidden)
		if len(q.CastIDs) == 0 {
			return emptyPostPage(), nil
		}
	case model.FeedFavorites:
		favorites, err := s.rel.FavoriteCastIDs(ctx, req.GuestID)
		if err != nil {
			return nil, storeFailure(ctx, "favorite casts", err)
		}
		q.CastIDs = minus(favorites, scope.Hidden)
		// 收藏不带来关注者权限，只看公开动态
		q.PublicOnly = true
	default:
		return nil, ErrInvalidArgument
	}

	return s.postPage(ctx, q, limit)
}

func (s *feedService) ListCastFeed(ctx context.Context, castID string, page PageRequest) (*PostPage, error) {
	if err := requireIDs(castID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetCast(ctx, castID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCastNotFound
		}
		return nil, storeFailure(ctx, "get cast", err)
	}
	limit := s.paging.normalize(page.Limit)
	return s.postPage(ctx, repository.PostQuery{
		CastIDs:      []string{castID},
		Unrestricted: true,
		After:        cursor.DecodePosition(page.Cursor),
		Limit:        limit + 1,
	}, limit)
}

func (s *feedService) postPage(ctx context.Context, q repository.PostQuery, limit int) (*PostPage, error) {
	if len(q.CastIDs) == 0 {
		return emptyPostPage(), nil
	}
	rows, err := s.posts.ListPostsByCastIDs(ctx, q)
	if err != nil {
		return nil, storeFailure(ctx, "list posts", err)
	}
	page := cursor.Paginate(rows, limit, postCursor)

	refs := make([]model.UserRef, 0, len(page.Items))
	seen := make(map[string]struct{}, len(page.Items))
	for _, p := range page.Items {
		if _, ok := seen[p.CastID]; ok {
			continue
		}
		seen[p.CastID] = struct{}{}
		refs = append(refs, model.UserRef{ID: p.CastID, Type: model.UserCast})
	}
	profiles, err := s.authors.LoadProfiles(ctx, refs)
	if err != nil {
		return nil, storeFailure(ctx, "load authors", err)
	}
	authors := make(map[string]model.Profile, len(profiles))
	for ref, p := range profiles {
		authors[ref.ID] = p
	}
	return &PostPage{Posts: page.Items, HasMore: page.HasMore, NextCursor: page.NextCursor, Authors: authors}, nil
}

func (s *feedService) ListFollowers(ctx context.Context, castID string, req PageRequest) (cursor.Page[Follower], error) {
	if err := requireIDs(castID); err != nil {
		return cursor.Page[Follower]{}, err
	}
	limit := s.paging.normalize(req.Limit)
	rows, err := s.rel.ListFollowers(ctx, castID, cursor.DecodePosition(req.Cursor), limit+1)
	if err != nil {
		return cursor.Page[Follower]{}, storeFailure(ctx, "list followers", err)
	}
	page := cursor.Paginate(rows, limit, func(f model.Follow) cursor.Fields {
		return positionCursor(f.CreatedAt, f.GuestID)
	})

	refs := make([]model.UserRef, len(page.Items))
	for i, f := range page.Items {
		refs[i] = model.UserRef{ID: f.GuestID, Type: model.UserGuest}
	}
	profiles, err := s.authors.LoadProfiles(ctx, refs)
	if err != nil {
		return cursor.Page[Follower]{}, storeFailure(ctx, "load followers", err)
	}
	return cursor.Map(page, func(f model.Follow) Follower {
		out := Follower{GuestID: f.GuestID, Status: f.Status, FollowedAt: f.CreatedAt}
		if p, ok := profiles[model.UserRef{ID: f.GuestID, Type: model.UserGuest}]; ok {
			out.Profile = &p
		}
		return out
	}), nil
}

func (s *feedService) ListFollowing(ctx context.Context, guestID string, req PageRequest) (cursor.Page[Following], error) {
	if err := requireIDs(guestID); err != nil {
		return cursor.Page[Following]{}, err
	}
	limit := s.paging.normalize(req.Limit)
	rows, err := s.rel.ListFollowing(ctx, guestID, cursor.DecodePosition(req.Cursor), limit+1)
	if err != nil {
		return cursor.Page[Following]{}, storeFailure(ctx, "list following", err)
	}
	page := cursor.Paginate(rows, limit, func(f model.Follow) cursor.Fields {
		return positionCursor(f.CreatedAt, f.CastID)
	})

	refs := make([]model.UserRef, len(page.Items))
	for i, f := range page.Items {
		refs[i] = model.UserRef{ID: f.CastID, Type: model.UserCast}
	}
	profiles, err := s.authors.LoadProfiles(ctx, refs)
	if err != nil {
		return cursor.Page[Following]{}, storeFailure(ctx, "load following", err)
	}
	return cursor.Map(page, func(f model.Follow) Following {
		out := Following{CastID: f.CastID, Status: f.Status, FollowedAt: f.CreatedAt}
		if p, ok := profiles[model.UserRef{ID: f.CastID, Type: model.UserCast}]; ok {
			out.Profile = &p
		}
		return out
	}), nil
}

func (s *feedService) ListBlocked(ctx context.Context, blockerID string, req PageRequest) (cursor.Page[BlockedUser], error) {
	if err := requireIDs(blockerID); err != nil {
		return cursor.Page[BlockedUser]{}, err
	}
	limit := s.paging.normalize(req.Limit)
	rows, err := s.rel.ListBlocks(ctx, blockerID, cursor.DecodePosition(req.Cursor), limit+1)
	if err != nil {
		return cursor.Page[BlockedUser]{}, storeFailure(ctx, "list blocks", err)
	}
	page := cursor.Paginate(rows, limit, func(b model.Block) cursor.Fields {
		return positionCursor(b.CreatedAt, b.BlockedID)
	})

	refs := make([]model.UserRef, len(page.Items))
	for i, b := range page.Items {
		refs[i] = model.UserRef{ID: b.BlockedID, Type: b.BlockedType}
	}
	profiles, err := s.authors.LoadProfiles(ctx, refs)
	if err != nil {
		return cursor.Page[BlockedUser]{}, storeFailure(ctx, "load blocked", err)
	}
	return cursor.Map(page, func(b model.Block) BlockedUser {
		p := profiles[model.UserRef{ID: b.BlockedID, Type: b.BlockedType}]
		return BlockedUser{ID: b.BlockedID, Type: b.BlockedType, Name: p.Name, AvatarURL: p.AvatarURL, BlockedAt: b.CreatedAt}
	}), nil
}
