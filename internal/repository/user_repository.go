package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/castgraph/internal/model"
)

// UserRepository 读取 cast / guest 资料
type UserRepository interface {
	GetCast(ctx context.Context, id string) (*model.Cast, error)
	GetCasts(ctx context.Context, ids []string) (map[string]*model.Cast, error)
	PublicCastIDs(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, ref model.UserRef) (bool, error)
	// LoadProfiles resolves display info for refs of both roles; missing
	// accounts are absent from the result.
	LoadProfiles(ctx context.Context, refs []model.UserRef) (map[model.UserRef]model.Profile, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) GetCast(ctx context.Context, id string) (*model.Cast, error) {
	var c model.Cast
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *userRepository) GetCasts(ctx context.Context, ids []string) (map[string]*model.Cast, error) {
	out := make(map[string]*model.Cast, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var casts []*model.Cast
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&casts).Error; err != nil {
		return nil, err
	}
	for _, c := range casts {
		out[c.ID] = c
	}
	return out, nil
}

func (r *userRepository) PublicCastIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Cast{}).
		Where("visibility = ?", model.VisibilityPublic).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *userRepository) Exists(ctx context.Context, ref model.UserRef) (bool, error) {
	var table any
	switch ref.Type {
	case model.UserCast:
		table = &model.Cast{}
	case model.UserGuest:
		table = &model.Guest{}
	default:
		return false, nil
	}
	var cnt int64
	err := r.db.WithContext(ctx).Model(table).Where("id = ?", ref.ID).Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepository) LoadProfiles(ctx context.Context, refs []model.UserRef) (map[model.UserRef]model.Profile, error) {
	out := make(map[model.UserRef]model.Profile, len(refs))
	var castIDs, guestIDs []string
	for _, ref := range refs {
		switch ref.Type {
		case model.UserCast:
			castIDs = append(castIDs, ref.ID)
		case model.UserGuest:
			guestIDs = append(guestIDs, ref.ID)
		}
	}

	if len(castIDs) > 0 {
		var casts []model.Cast
		if err := r.db.WithContext(ctx).Select("id", "name", "avatar_url").Where("id IN ?", castIDs).Find(&casts).Error; err != nil {
			return nil, err
		}
		for _, c := range casts {
			ref := model.UserRef{ID: c.ID, Type: model.UserCast}
			out[ref] = model.Profile{ID: c.ID, Type: model.UserCast, Name: c.Name, AvatarURL: c.AvatarURL}
		}
	}
	if len(guestIDs) > 0 {
		var guests []model.Guest
		if err := r.db.WithContext(ctx).Select("id", "name", "avatar_url").Where("id IN ?", guestIDs).Find(&guests).Error; err != nil {
			return nil, err
		}
		for _, g := range guests {
			ref := model.UserRef{ID: g.ID, Type: model.UserGuest}
			out[ref] = model.Profile{ID: g.ID, Type: model.UserGuest, Name: g.Name, AvatarURL: g.AvatarURL}
		}
	}
	return out, nil
}
