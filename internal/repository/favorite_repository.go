package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/castgraph/internal/model"
)

func (r *relationshipStore) AddFavorite(ctx context.Context, castID, guestID string) error {
	f := &model.Favorite{ID: uuid.New().String(), CastID: castID, GuestID: guestID, CreatedAt: r.now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error
}

func (r *relationshipStore) RemoveFavorite(ctx context.Context, castID, guestID string) error {
	return r.db.WithContext(ctx).
		Where("cast_id = ? AND guest_id = ?", castID, guestID).
		Delete(&model.Favorite{}).Error
}

func (r *relationshipStore) FavoriteCastIDs(ctx context.Context, guestID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("guest_id = ?", guestID).
		Pluck("cast_id", &ids).Error
	return ids, err
}

func (r *relationshipStore) FavoriteStatuses(ctx context.Context, guestID string, castIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(castIDs))
	for _, id := range castIDs {
		out[id] = false
	}
	if len(castIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("guest_id = ? AND cast_id IN ?", guestID, castIDs).
		Pluck("cast_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
