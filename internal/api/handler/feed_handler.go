package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/castgraph/internal/api/middleware"
	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/service"
	"github.com/d60-Lab/castgraph/pkg/response"
)

type feedQuery struct {
	pageQuery
	Filter    string `form:"filter" binding:"omitempty,oneof=all following favorites"`
	BlockerID string `form:"blocker_id" binding:"omitempty,ident"`
}

// GetCast 查看 cast 资料；被拉黑时与不存在一样返回 404
// @Summary cast 资料
// @Tags 资料
// @Param cast_id path string true "cast ID"
// @Success 200 {object} response.Response{data=service.CastProfile}
// @Failure 404 {object} response.Response
// @Router /api/v1/casts/{cast_id} [get]
func (h *Handler) GetCast(c *gin.Context) {
	v, _ := middleware.ViewerFrom(c.Request.Context())
	profile, err := h.profileService.GetCast(c.Request.Context(), c.Param("cast_id"), v.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, profile)
}

// GuestFeed guest 的动态流
// @Summary 动态流
// @Tags 动态
// @Security BearerAuth
// @Param filter query string false "all / following / favorites" default(all)
// @Param blocker_id query string false "只能是自己的 ID"
// @Param limit query int false "每页数量"
// @Param cursor query string false "游标"
// @Success 200 {object} response.Response{data=service.PostPage}
// @Router /api/v1/feed [get]
func (h *Handler) GuestFeed(c *gin.Context) {
	v, ok := viewer(c, model.UserGuest)
	if !ok {
		return
	}
	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	filter := model.FeedAll
	if q.Filter != "" {
		f, err := model.ParseFeedFilter(q.Filter)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		filter = f
	}
	// 只能用自己的拉黑列表，否则可通过对比 feed 推断他人的拉黑关系
	if q.BlockerID != "" && q.BlockerID != v.ID {
		response.Forbidden(c, "blocker_id must be the viewer")
		return
	}
	page, err := h.feedService.ListGuestFeed(c.Request.Context(), service.GuestFeedRequest{
		GuestID:     v.ID,
		Filter:      filter,
		BlockerID:   q.BlockerID,
		PageRequest: q.request(),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// CastFeed cast 查看自己的动态，不做可见性过滤
// @Summary 我的动态
// @Tags 动态
// @Security BearerAuth
// @Param limit query int false "每页数量"
// @Param cursor query string false "游标"
// @Success 200 {object} response.Response{data=service.PostPage}
// @Router /api/v1/me/posts [get]
func (h *Handler) CastFeed(c *gin.Context) {
	v, ok := viewer(c, model.UserCast)
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.feedService.ListCastFeed(c.Request.Context(), v.ID, q.request())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}
