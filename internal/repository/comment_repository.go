package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

// CommentQuery lists the top-level comments of PostID, or the replies of
// ParentID when it is set.
type CommentQuery struct {
	PostID         string
	ParentID       string
	ExcludeUserIDs []string
	After          *cursor.Position
	Limit          int
}

// CommentStore 评论存储接口
type CommentStore interface {
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	// CreateComment stores the comment and its media in one transaction.
	CreateComment(ctx context.Context, c *model.Comment) error
	// DeleteComment removes the comment, its replies and their media.
	DeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, q CommentQuery) ([]model.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentStore { return &commentRepository{db: db} }

func (r *commentRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *commentRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Media 通过关联一并写入
		return tx.Create(c).Error
	})
}

func (r *commentRepository) DeleteComment(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []string{id}
		var replyIDs []string
		if err := tx.Model(&model.Comment{}).Where("parent_id = ?", id).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		ids = append(ids, replyIDs...)

		if err := tx.Where("comment_id IN ?", ids).Delete(&model.CommentMedia{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.Comment{}).Error
	})
}

func (r *commentRepository) ListComments(ctx context.Context, cq CommentQuery) ([]model.Comment, error) {
	if cq.Limit <= 0 {
		return []model.Comment{}, nil
	}
	q := r.db.WithContext(ctx).Model(&model.Comment{})
	if cq.ParentID != "" {
		q = q.Where("parent_id = ?", cq.ParentID)
	} else {
		q = q.Where("post_id = ? AND parent_id IS NULL", cq.PostID)
	}
	if len(cq.ExcludeUserIDs) > 0 {
		q = q.Where("user_id NOT IN ?", cq.ExcludeUserIDs)
	}
	q = q.Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })

	var res []model.Comment
	err := seek(q, "created_at", "id", cq.After).Limit(cq.Limit).Find(&res).Error
	return res, err
}
