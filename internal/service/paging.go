package service

import (
	"context"
	"time"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/cursor"
)

// Paging 列表默认 / 最大条数
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultPaging matches the config defaults.
var DefaultPaging = Paging{DefaultLimit: 20, MaxLimit: 100}

func (p Paging) normalize(limit int) int {
	return cursor.NormalizeLimit(limit, p.DefaultLimit, p.MaxLimit)
}

// PageRequest 通用分页参数
type PageRequest struct {
	Limit  int
	Cursor string
}

// AuthorResolver batch-loads display info. Implemented by the user store and
// the redis profile cache.
type AuthorResolver interface {
	LoadProfiles(ctx context.Context, refs []model.UserRef) (map[model.UserRef]model.Profile, error)
}

func positionCursor(at time.Time, id string) cursor.Fields {
	return cursor.Position{CreatedAt: at, ID: id}.Fields()
}
