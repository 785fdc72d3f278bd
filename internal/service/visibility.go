package service

import (
	"context"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
)

// viewFacts 是一次可见性判断所需的全部关系事实
type viewFacts struct {
	blocked bool
	follow  model.FollowStatus
}

func canViewProfile(cast *model.Cast, viewerID string, f viewFacts) bool {
	if cast == nil {
		return false
	}
	if viewerID == "" {
		return true
	}
	return !f.blocked
}

func canViewProfileDetails(cast *model.Cast, viewerID string, f viewFacts) bool {
	if cast == nil {
		return false
	}
	if viewerID == cast.ID {
		return true
	}
	if f.blocked {
		return false
	}
	if cast.Visibility == model.VisibilityPublic {
		return true
	}
	return viewerID != "" && f.follow == model.FollowApproved
}

func canViewPost(post *model.Post, cast *model.Cast, viewerID string, f viewFacts) bool {
	if post == nil || cast == nil || post.CastID != cast.ID {
		return false
	}
	if viewerID == cast.ID {
		return true
	}
	if f.blocked {
		return false
	}
	if cast.Visibility == model.VisibilityPublic && post.Visibility == model.VisibilityPublic {
		return true
	}
	return viewerID != "" && f.follow == model.FollowApproved
}

// VisibilityPolicy answers who may see a cast's profile and posts.
// Single-item and batch checks share the same decision functions and differ
// only in how the facts are fetched.
type VisibilityPolicy struct {
	store repository.RelationshipStore
}

func NewVisibilityPolicy(store repository.RelationshipStore) *VisibilityPolicy {
	return &VisibilityPolicy{store: store}
}

// facts 一次性取 viewer 与 castIDs 之间的拉黑与关注状态
func (p *VisibilityPolicy) facts(ctx context.Context, viewerID string, castIDs []string) (map[string]viewFacts, error) {
	out := make(map[string]viewFacts, len(castIDs))
	if viewerID == "" || len(castIDs) == 0 {
		return out, nil
	}
	blocked, err := p.store.BlockedEitherWay(ctx, viewerID, castIDs)
	if err != nil {
		return nil, storeFailure(ctx, "blocked either way", err)
	}
	follows, err := p.store.FollowStatuses(ctx, viewerID, castIDs)
	if err != nil {
		return nil, storeFailure(ctx, "follow statuses", err)
	}
	for _, id := range castIDs {
		out[id] = viewFacts{blocked: blocked[id], follow: follows[id]}
	}
	return out, nil
}

func (p *VisibilityPolicy) factsFor(ctx context.Context, viewerID string, cast *model.Cast) (viewFacts, error) {
	if cast == nil {
		return viewFacts{}, nil
	}
	m, err := p.facts(ctx, viewerID, []string{cast.ID})
	if err != nil {
		return viewFacts{}, err
	}
	return m[cast.ID], nil
}

func (p *VisibilityPolicy) CanViewProfile(ctx context.Context, cast *model.Cast, viewerID string) (bool, error) {
	f, err := p.factsFor(ctx, viewerID, cast)
	if err != nil {
		return false, err
	}
	return canViewProfile(cast, viewerID, f), nil
}

// CanViewProfileDetails gates plans and schedules, not the bare profile.
func (p *VisibilityPolicy) CanViewProfileDetails(ctx context.Context, cast *model.Cast, viewerID string) (bool, error) {
	f, err := p.factsFor(ctx, viewerID, cast)
	if err != nil {
		return false, err
	}
	return canViewProfileDetails(cast, viewerID, f), nil
}

func (p *VisibilityPolicy) CanViewPost(ctx context.Context, post *model.Post, cast *model.Cast, viewerID string) (bool, error) {
	f, err := p.factsFor(ctx, viewerID, cast)
	if err != nil {
		return false, err
	}
	return canViewPost(post, cast, viewerID, f), nil
}

// FilterViewablePosts keeps the posts viewerID may see, preserving order.
// Posts whose cast is missing from casts are dropped.
func (p *VisibilityPolicy) FilterViewablePosts(ctx context.Context, posts []model.Post, casts map[string]*model.Cast, viewerID string) ([]model.Post, error) {
	castIDs := make([]string, 0, len(posts))
	for i := range posts {
		castIDs = append(castIDs, posts[i].CastID)
	}
	facts, err := p.facts(ctx, viewerID, dedupe(castIDs))
	if err != nil {
		return nil, err
	}
	out := make([]model.Post, 0, len(posts))
	for i := range posts {
		post := &posts[i]
		if canViewPost(post, casts[post.CastID], viewerID, facts[post.CastID]) {
			out = append(out, *post)
		}
	}
	return out, nil
}

// PostScope is the batch form of the post rule expressed as cast id sets,
// so the content store can apply it in the query itself.
type PostScope struct {
	// FullAccess casts show every post to the viewer (approved follows).
	FullAccess []string
	// Hidden casts show nothing (blocks in either direction).
	Hidden []string
}

// ScopeFor builds the scope for a guest viewer. blockerID selects whose
// block list hides casts; it defaults to the viewer.
func (p *VisibilityPolicy) ScopeFor(ctx context.Context, guestID, blockerID string) (PostScope, error) {
	if blockerID == "" {
		blockerID = guestID
	}
	blocked, err := p.store.BlockedIDs(ctx, blockerID, model.UserCast)
	if err != nil {
		return PostScope{}, storeFailure(ctx, "blocked casts", err)
	}
	blockers, err := p.store.BlockerIDs(ctx, guestID, model.UserCast)
	if err != nil {
		return PostScope{}, storeFailure(ctx, "blocking casts", err)
	}
	approved, err := p.store.FollowingCastIDs(ctx, guestID, model.FollowApproved)
	if err != nil {
		return PostScope{}, storeFailure(ctx, "approved follows", err)
	}
	hidden := dedupe(append(append([]string{}, blocked...), blockers...))
	if blockerID != guestID {
		// 指定了其他 blocker 时，guest 自己的拉黑同样生效
		own, err := p.store.BlockedIDs(ctx, guestID, model.UserCast)
		if err != nil {
			return PostScope{}, storeFailure(ctx, "blocked casts", err)
		}
		hidden = dedupe(append(hidden, own...))
	}
	return PostScope{FullAccess: minus(approved, hidden), Hidden: hidden}, nil
}

// minus returns ids not in drop, deduplicated.
func minus(ids, drop []string) []string {
	skip := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		skip[id] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range dedupe(ids) {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
