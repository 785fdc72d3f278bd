package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

// PostQuery selects posts of CastIDs minus ExcludeCastIDs, newest first.
//
// Unless Unrestricted is set, a post is returned only when it is public and
// its cast is public, or when its cast is in FullAccessCastIDs (the viewer's
// approved follows).
type PostQuery struct {
	CastIDs           []string
	FullAccessCastIDs []string
	ExcludeCastIDs    []string
	PublicOnly        bool
	Unrestricted      bool
	After             *cursor.Position
	Limit             int
}

// ContentStore 动态读取接口
type ContentStore interface {
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPostsByCastIDs(ctx context.Context, q PostQuery) ([]model.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) ContentStore { return &postRepository{db: db} }

func (r *postRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) ListPostsByCastIDs(ctx context.Context, pq PostQuery) ([]model.Post, error) {
	if len(pq.CastIDs) == 0 || pq.Limit <= 0 {
		return []model.Post{}, nil
	}

	q := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Select("posts.*").
		Where("posts.cast_id IN ?", pq.CastIDs)
	if len(pq.ExcludeCastIDs) > 0 {
		q = q.Where("posts.cast_id NOT IN ?", pq.ExcludeCastIDs)
	}
	if pq.PublicOnly {
		q = q.Where("posts.visibility = ?", model.VisibilityPublic)
	}
	if !pq.Unrestricted {
		q = q.Joins("JOIN casts ON casts.id = posts.cast_id")
		if len(pq.FullAccessCastIDs) > 0 {
			q = q.Where("(posts.cast_id IN ? OR (posts.visibility = ? AND casts.visibility = ?))",
				pq.FullAccessCastIDs, model.VisibilityPublic, model.VisibilityPublic)
		} else {
			q = q.Where("posts.visibility = ? AND casts.visibility = ?", model.VisibilityPublic, model.VisibilityPublic)
		}
	}

	var posts []model.Post
	err := seek(q, "posts.created_at", "posts.id", pq.After).Limit(pq.Limit).Find(&posts).Error
	return posts, err
}
