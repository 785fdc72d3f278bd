package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

func (r *relationshipStore) CreateFollow(ctx context.Context, castID, guestID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCast(tx, castID); err != nil {
			return err
		}
		blocked, err := blockedBetween(tx, castID, guestID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrBlocked
		}

		now := r.now()
		f := &model.Follow{
			ID:        uuid.New().String(),
			CastID:    castID,
			GuestID:   guestID,
			Status:    model.FollowPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		// 幂等：重复关注不报错
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(f)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0
		return nil
	})
	return created, err
}

func (r *relationshipStore) ApproveFollow(ctx context.Context, castID, guestID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("cast_id = ? AND guest_id = ? AND status = ?", castID, guestID, model.FollowPending).
		Updates(map[string]any{"status": model.FollowApproved, "updated_at": r.now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *relationshipStore) DeleteFollow(ctx context.Context, castID, guestID string) error {
	return r.db.WithContext(ctx).
		Where("cast_id = ? AND guest_id = ?", castID, guestID).
		Delete(&model.Follow{}).Error
}

func (r *relationshipStore) FollowStatuses(ctx context.Context, guestID string, castIDs []string) (map[string]model.FollowStatus, error) {
	out := make(map[string]model.FollowStatus)
	if len(castIDs) == 0 {
		return out, nil
	}
	var rows []model.Follow
	if err := r.db.WithContext(ctx).
		Select("cast_id", "status").
		Where("guest_id = ? AND cast_id IN ?", guestID, castIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, f := range rows {
		out[f.CastID] = f.Status
	}
	return out, nil
}

// FollowingCastIDs 返回 guest 关注的 cast；status 为 0 时不区分状态
func (r *relationshipStore) FollowingCastIDs(ctx context.Context, guestID string, status model.FollowStatus) ([]string, error) {
	q := r.db.WithContext(ctx).Model(&model.Follow{}).Where("guest_id = ?", guestID)
	if status != 0 {
		q = q.Where("status = ?", status)
	}
	var ids []string
	err := q.Pluck("cast_id", &ids).Error
	return ids, err
}

// ListFollowers 粉丝列表，排除被该 cast 拉黑的 guest
func (r *relationshipStore) ListFollowers(ctx context.Context, castID string, after *cursor.Position, limit int) ([]model.Follow, error) {
	blocked := r.db.Model(&model.Block{}).Select("blocked_id").Where("blocker_id = ?", castID)
	q := r.db.WithContext(ctx).
		Where("cast_id = ?", castID).
		Where("guest_id NOT IN (?)", blocked)
	var res []model.Follow
	err := seek(q, "created_at", "guest_id", after).Limit(limit).Find(&res).Error
	return res, err
}

func (r *relationshipStore) ListFollowing(ctx context.Context, guestID string, after *cursor.Position, limit int) ([]model.Follow, error) {
	q := r.db.WithContext(ctx).Where("guest_id = ?", guestID)
	var res []model.Follow
	err := seek(q, "created_at", "cast_id", after).Limit(limit).Find(&res).Error
	return res, err
}
