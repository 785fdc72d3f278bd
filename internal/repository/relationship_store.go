package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrBlocked 双方存在拉黑关系，拒绝建立关注
	ErrBlocked = errors.New("relationship blocked")
)

// RelationshipStore 关注 / 拉黑 / 收藏三类事实的持久化接口
type RelationshipStore interface {
	// CreateFollow inserts a pending follow. created is false when the row
	// already existed. Returns ErrBlocked when a block exists either way.
	CreateFollow(ctx context.Context, castID, guestID string) (created bool, err error)
	// ApproveFollow moves a pending follow to approved; false when there was
	// no pending row.
	ApproveFollow(ctx context.Context, castID, guestID string) (bool, error)
	DeleteFollow(ctx context.Context, castID, guestID string) error
	FollowStatuses(ctx context.Context, guestID string, castIDs []string) (map[string]model.FollowStatus, error)
	FollowingCastIDs(ctx context.Context, guestID string, status model.FollowStatus) ([]string, error)
	ListFollowers(ctx context.Context, castID string, after *cursor.Position, limit int) ([]model.Follow, error)
	ListFollowing(ctx context.Context, guestID string, after *cursor.Position, limit int) ([]model.Follow, error)

	// CreateBlock inserts the block and, for cast→guest, removes the follow
	// between the pair in the same transaction.
	CreateBlock(ctx context.Context, b model.Block) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
	BlockedIDs(ctx context.Context, blockerID string, blockedType model.UserType) ([]string, error)
	BlockerIDs(ctx context.Context, blockedID string, blockerType model.UserType) ([]string, error)
	BlockedEitherWay(ctx context.Context, userID string, otherIDs []string) (map[string]bool, error)
	ListBlocks(ctx context.Context, blockerID string, after *cursor.Position, limit int) ([]model.Block, error)

	AddFavorite(ctx context.Context, castID, guestID string) error
	RemoveFavorite(ctx context.Context, castID, guestID string) error
	FavoriteCastIDs(ctx context.Context, guestID string) ([]string, error)
	FavoriteStatuses(ctx context.Context, guestID string, castIDs []string) (map[string]bool, error)
}

type relationshipStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRelationshipStore(db *gorm.DB) RelationshipStore {
	return &relationshipStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// lockCast 串行化同一个 cast 上的关注与拉黑写入。sqlite 本身串行写，不加行锁
func lockCast(tx *gorm.DB, castID string) error {
	if tx.Dialector.Name() == "sqlite" {
		return nil
	}
	var ids []string
	return tx.Model(&model.Cast{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", castID).
		Limit(1).
		Pluck("id", &ids).Error
}

// seek 按 (created_at desc, id desc) 键集分页
func seek(db *gorm.DB, createdCol, idCol string, after *cursor.Position) *gorm.DB {
	if after != nil {
		at := after.CreatedAt.UTC()
		if after.ID == "" {
			db = db.Where(createdCol+" < ?", at)
		} else {
			db = db.Where("("+createdCol+" < ? OR ("+createdCol+" = ? AND "+idCol+" < ?))", at, at, after.ID)
		}
	}
	return db.Order(createdCol + " DESC").Order(idCol + " DESC")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
