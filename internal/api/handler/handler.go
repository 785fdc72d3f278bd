package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/castgraph/internal/api/middleware"
	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/service"
	"github.com/d60-Lab/castgraph/pkg/response"
)

// Handler 聚合各业务 service，对应 /api/v1 下的全部路由
type Handler struct {
	relService     service.RelationshipService
	feedService    service.FeedService
	commentService service.CommentService
	profileService *service.ProfileService
}

func NewHandler(
	rel service.RelationshipService,
	feed service.FeedService,
	comments service.CommentService,
	profiles *service.ProfileService,
) *Handler {
	return &Handler{relService: rel, feedService: feed, commentService: comments, profileService: profiles}
}

type pageQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=0"`
	Cursor string `form:"cursor"`
}

func (q pageQuery) request() service.PageRequest {
	return service.PageRequest{Limit: q.Limit, Cursor: q.Cursor}
}

// fail 把业务错误映射为 HTTP 状态；未知错误只返回通用信息
func fail(c *gin.Context, err error) {
	switch {
	case service.IsNotFound(err):
		response.NotFound(c, err.Error())
	case service.IsValidation(err):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotCommentAuthor):
		response.Forbidden(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// viewer returns the authenticated viewer, optionally requiring a role.
// It writes the error response itself and returns false on failure.
func viewer(c *gin.Context, role model.UserType) (middleware.Viewer, bool) {
	v, ok := middleware.ViewerFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, middleware.ErrMissingToken.Error())
		return middleware.Viewer{}, false
	}
	if role != 0 && v.Type != role {
		response.Forbidden(c, "endpoint requires a "+role.String()+" account")
		return middleware.Viewer{}, false
	}
	return v, true
}

// splitIDs parses a comma separated id list.
func splitIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
