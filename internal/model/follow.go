package model

import (
	"time"
)

// Follow 关注关系（Guest 关注 Cast），私密内容需 approved
type Follow struct {
	ID      string       `gorm:"primaryKey;type:varchar(36)"`
	CastID  string       `gorm:"type:varchar(36);not null;index:idx_follow_pair,unique;index:idx_follow_cast_created,priority:1"`
	GuestID string       `gorm:"type:varchar(36);not null;index:idx_follow_pair,unique;index:idx_follow_guest_created,priority:1"`
	// 复合唯一键 idx_follow_pair = (cast_id, guest_id)，每对最多一行
	Status    FollowStatus `gorm:"not null"`
	CreatedAt time.Time    `gorm:"index:idx_follow_cast_created,priority:2;index:idx_follow_guest_created,priority:2"`
	UpdatedAt time.Time
}

func (Follow) TableName() string { return "follows" }

// Block 拉黑关系，有方向，双方可以是任意角色
type Block struct {
	ID          string   `gorm:"primaryKey;type:varchar(36)"`
	BlockerID   string   `gorm:"type:varchar(36);not null;index:idx_block_pair,unique;index:idx_block_blocker_created,priority:1"`
	BlockerType UserType `gorm:"not null"`
	BlockedID   string   `gorm:"type:varchar(36);not null;index:idx_block_pair,unique;index:idx_block_blocked"`
	BlockedType UserType `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index:idx_block_blocker_created,priority:2"`
}

func (Block) TableName() string { return "blocks" }

// Favorite 收藏，不影响可见性
type Favorite struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	CastID    string    `gorm:"type:varchar(36);not null;index:idx_favorite_pair,unique"`
	GuestID   string    `gorm:"type:varchar(36);not null;index:idx_favorite_pair,unique;index:idx_favorite_guest"`
	CreatedAt time.Time
}

func (Favorite) TableName() string { return "favorites" }
