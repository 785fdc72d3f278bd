package service

import (
	"context"
	"errors"
	"strings"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
)

// RelationshipService 关注 / 拉黑 / 收藏写操作及批量状态查询
//
// 调用方负责鉴权（例如 ApproveFollow 的调用者必须就是 castID 本人）。
type RelationshipService interface {
	Follow(ctx context.Context, castID, guestID string) error
	Unfollow(ctx context.Context, castID, guestID string) error
	// ApproveFollow returns false when there was no pending follow.
	ApproveFollow(ctx context.Context, castID, guestID string) (bool, error)
	Block(ctx context.Context, blocker, blocked model.UserRef) error
	Unblock(ctx context.Context, blockerID, blockedID string) error
	AddFavorite(ctx context.Context, castID, guestID string) error
	RemoveFavorite(ctx context.Context, castID, guestID string) error

	// FollowStatusBatch has an entry only for casts the guest follows.
	FollowStatusBatch(ctx context.Context, castIDs []string, guestID string) (map[string]model.FollowStatus, error)
	FavoriteStatusBatch(ctx context.Context, castIDs []string, guestID string) (map[string]bool, error)
	BlockedCastIDs(ctx context.Context, blockerID string) ([]string, error)
	BlockedGuestIDs(ctx context.Context, blockerID string) ([]string, error)
}

type relationshipService struct {
	store repository.RelationshipStore
	users repository.UserRepository
}

func NewRelationshipService(store repository.RelationshipStore, users repository.UserRepository) RelationshipService {
	return &relationshipService{store: store, users: users}
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return ErrInvalidArgument
		}
	}
	return nil
}

func (s *relationshipService) requireCast(ctx context.Context, castID string) error {
	if _, err := s.users.GetCast(ctx, castID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCastNotFound
		}
		return storeFailure(ctx, "get cast", err)
	}
	return nil
}

func (s *relationshipService) Follow(ctx context.Context, castID, guestID string) error {
	if err := requireIDs(castID, guestID); err != nil {
		return err
	}
	if err := s.requireCast(ctx, castID); err != nil {
		return err
	}
	if _, err := s.store.CreateFollow(ctx, castID, guestID); err != nil {
		// 被拉黑时与 cast 不存在无法区分
		if errors.Is(err, repository.ErrBlocked) {
			return ErrCastNotFound
		}
		return storeFailure(ctx, "create follow", err)
	}
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, castID, guestID string) error {
	if err := requireIDs(castID, guestID); err != nil {
		return err
	}
	if err := s.store.DeleteFollow(ctx, castID, guestID); err != nil {
		return storeFailure(ctx, "delete follow", err)
	}
	return nil
}

func (s *relationshipService) ApproveFollow(ctx context.Context, castID, guestID string) (bool, error) {
	if err := requireIDs(castID, guestID); err != nil {
		return false, err
	}
	ok, err := s.store.ApproveFollow(ctx, castID, guestID)
	if err != nil {
		return false, storeFailure(ctx, "approve follow", err)
	}
	return ok, nil
}

func (s *relationshipService) Block(ctx context.Context, blocker, blocked model.UserRef) error {
	if err := requireIDs(blocker.ID, blocked.ID); err != nil {
		return err
	}
	if blocker.Type == 0 || blocked.Type == 0 || blocker == blocked {
		return ErrInvalidArgument
	}
	ok, err := s.users.Exists(ctx, blocked)
	if err != nil {
		return storeFailure(ctx, "check user", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	err = s.store.CreateBlock(ctx, model.Block{
		BlockerID:   blocker.ID,
		BlockerType: blocker.Type,
		BlockedID:   blocked.ID,
		BlockedType: blocked.Type,
	})
	if err != nil {
		return storeFailure(ctx, "create block", err)
	}
	return nil
}

func (s *relationshipService) Unblock(ctx context.Context, blockerID, blockedID string) error {
	if err := requireIDs(blockerID, blockedID); err != nil {
		return err
	}
	if err := s.store.DeleteBlock(ctx, blockerID, blockedID); err != nil {
		return storeFailure(ctx, "delete block", err)
	}
	return nil
}

func (s *relationshipService) AddFavorite(ctx context.Context, castID, guestID string) error {
	if err := requireIDs(castID, guestID); err != nil {
		return err
	}
	if err := s.requireCast(ctx, castID); err != nil {
		return err
	}
	if err := s.store.AddFavorite(ctx, castID, guestID); err != nil {
		return storeFailure(ctx, "add favorite", err)
	}
	return nil
}

func (s *relationshipService) RemoveFavorite(ctx context.Context, castID, guestID string) error {
	if err := requireIDs(castID, guestID); err != nil {
		return err
	}
	if err := s.store.RemoveFavorite(ctx, castID, guestID); err != nil {
		return storeFailure(ctx, "remove favorite", err)
	}
	return nil
}

func (s *relationshipService) FollowStatusBatch(ctx context.Context, castIDs []string, guestID string) (map[string]model.FollowStatus, error) {
	if err := requireIDs(guestID); err != nil {
		return nil, err
	}
	res, err := s.store.FollowStatuses(ctx, guestID, dedupe(castIDs))
	if err != nil {
		return nil, storeFailure(ctx, "follow statuses", err)
	}
	return res, nil
}

func (s *relationshipService) FavoriteStatusBatch(ctx context.Context, castIDs []string, guestID string) (map[string]bool, error) {
	if err := requireIDs(guestID); err != nil {
		return nil, err
	}
	res, err := s.store.FavoriteStatuses(ctx, guestID, dedupe(castIDs))
	if err != nil {
		return nil, storeFailure(ctx, "favorite statuses", err)
	}
	return res, nil
}

func (s *relationshipService) BlockedCastIDs(ctx context.Context, blockerID string) ([]string, error) {
	ids, err := s.store.BlockedIDs(ctx, blockerID, model.UserCast)
	if err != nil {
		return nil, storeFailure(ctx, "blocked casts", err)
	}
	return ids, nil
}

func (s *relationshipService) BlockedGuestIDs(ctx context.Context, blockerID string) ([]string, error) {
	ids, err := s.store.BlockedIDs(ctx, blockerID, model.UserGuest)
	if err != nil {
		return nil, storeFailure(ctx, "blocked guests", err)
	}
	return ids, nil
}

// dedupe keeps first occurrences and drops blanks.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
