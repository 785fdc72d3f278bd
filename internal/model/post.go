package model

import "time"

// Post 动态（仅引擎所需字段）
type Post struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CastID     string     `gorm:"type:varchar(36);not null;index:idx_post_cast_created,priority:1" json:"cast_id"`
	Content    string     `gorm:"type:text" json:"content"`
	Visibility Visibility `gorm:"not null" json:"visibility"`
	CreatedAt  time.Time  `gorm:"index:idx_post_cast_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

// Comment 评论，最多一层回复
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `gorm:"type:varchar(36);not null;index:idx_comment_post_created,priority:1"`
	ParentID  *string   `gorm:"type:varchar(36);index:idx_comment_parent_created,priority:1"`
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	UserType  UserType  `gorm:"not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_comment_post_created,priority:2;index:idx_comment_parent_created,priority:2"`

	Media []CommentMedia `gorm:"foreignKey:CommentID"`
}

func (Comment) TableName() string { return "comments" }

// CommentMedia 评论附件，URL 由媒体服务解析
type CommentMedia struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	CommentID string    `gorm:"type:varchar(36);not null;index"`
	MediaID   string    `gorm:"type:varchar(64);not null"`
	MediaType MediaType `gorm:"not null"`
	Position  int       `gorm:"not null"`
}

func (CommentMedia) TableName() string { return "comment_media" }

// AllModels is the migration set.
func AllModels() []any {
	return []any{&Cast{}, &Guest{}, &Follow{}, &Block{}, &Favorite{}, &Post{}, &Comment{}, &CommentMedia{}}
}
