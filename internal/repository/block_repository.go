package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

func blockedBetween(tx *gorm.DB, a, b string) (bool, error) {
	var cnt int64
	err := tx.Model(&model.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *relationshipStore) CreateBlock(ctx context.Context, b model.Block) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch {
		case b.BlockerType == model.UserCast && b.BlockedType == model.UserGuest:
			if err := lockCast(tx, b.BlockerID); err != nil {
				return err
			}
		case b.BlockerType == model.UserGuest && b.BlockedType == model.UserCast:
			if err := lockCast(tx, b.BlockedID); err != nil {
				return err
			}
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&b).Error; err != nil {
			return err
		}
		if b.BlockerType == model.UserCast && b.BlockedType == model.UserGuest {
			// 拉黑与取关同一事务，不允许拉黑后关注仍然存在
			if err := tx.Where("cast_id = ? AND guest_id = ?", b.BlockerID, b.BlockedID).
				Delete(&model.Follow{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *relationshipStore) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	return r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&model.Block{}).Error
}

func (r *relationshipStore) BlockedIDs(ctx context.Context, blockerID string, blockedType model.UserType) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Block{}).
		Where("blocker_id = ? AND blocked_type = ?", blockerID, blockedType).
		Pluck("blocked_id", &ids).Error
	return ids, err
}

func (r *relationshipStore) BlockerIDs(ctx context.Context, blockedID string, blockerType model.UserType) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Block{}).
		Where("blocked_id = ? AND blocker_type = ?", blockedID, blockerType).
		Pluck("blocker_id", &ids).Error
	return ids, err
}

// BlockedEitherWay 返回 otherIDs 中与 userID 存在任一方向拉黑的 id
func (r *relationshipStore) BlockedEitherWay(ctx context.Context, userID string, otherIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(otherIDs) == 0 {
		return out, nil
	}
	var rows []model.Block
	if err := r.db.WithContext(ctx).
		Select("blocker_id", "blocked_id").
		Where("(blocker_id = ? AND blocked_id IN ?) OR (blocked_id = ? AND blocker_id IN ?)", userID, otherIDs, userID, otherIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, b := range rows {
		if b.BlockerID == userID {
			out[b.BlockedID] = true
		} else {
			out[b.BlockerID] = true
		}
	}
	return out, nil
}

func (r *relationshipStore) ListBlocks(ctx context.Context, blockerID string, after *cursor.Position, limit int) ([]model.Block, error) {
	q := r.db.WithContext(ctx).Where("blocker_id = ?", blockerID)
	var res []model.Block
	err := seek(q, "created_at", "blocked_id", after).Limit(limit).Find(&res).Error
	return res, err
}
