package model

import "time"

// Cast 服务提供方（资料、动态的作者）
type Cast struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name       string     `gorm:"type:varchar(64);not null" json:"name"`
	AvatarURL  string     `gorm:"type:varchar(512)" json:"avatar_url"`
	Visibility Visibility `gorm:"not null;index" json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Cast) TableName() string { return "casts" }

// Guest 消费方
type Guest struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(64);not null" json:"name"`
	AvatarURL string    `gorm:"type:varchar(512)" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Guest) TableName() string { return "guests" }

// UserRef identifies an account of either role.
type UserRef struct {
	ID   string   `json:"id"`
	Type UserType `json:"type"`
}

// Profile is the denormalised display info attached to list items.
type Profile struct {
	ID        string   `json:"id"`
	Type      UserType `json:"type"`
	Name      string   `json:"name"`
	AvatarURL string   `json:"avatar_url"`
}
