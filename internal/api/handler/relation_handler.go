package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/response"
)

type castRequest struct {
	CastID string `json:"cast_id" binding:"required,ident"`
}

type blockRequest struct {
	BlockedID   string         `json:"blocked_id" binding:"required,ident"`
	BlockedType model.UserType `json:"blocked_type" binding:"required"`
}

type idsQuery struct {
	CastIDs string `form:"cast_ids" binding:"required"`
}

// Follow 关注 cast，初始为 pending
// @Summary 关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body castRequest true "被关注的 cast"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/follows [post]
func (h *Handler) Follow(c *gin.Context) {
	v, ok := viewer(c, model.UserGuest)
	if !ok {
		return
	}
	var req castRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Follow(c.Request.Context(), req.CastID, v.ID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow 取消关注（幂等）
// @Summary 取消关注
// @Tags 关系链
// @Security BearerAuth
// @Param cast_id path string true "cast ID"
// @Success 200 {object} response.Response
// @Router /api/v1/follows/{cast_id} [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	v, ok := viewer(c, model.UserGuest)
	if !ok {
		return
	}
	if err := h.relService.Unfollow(c.Request.Context(), c.Param("cast_id"), v.ID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// ApproveFollow cast 通过某个 guest 的关注申请
// @Summary 通过关注申请
// @Tags 关系链
// @Security BearerAuth
// @Param guest_id path string true "guest ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Router /api/v1/follows/{guest_id}/approve [post]
func (h *Handler) ApproveFollow(c *gin.Context) {
	v, ok := viewer(c, model.UserCast)
	if !ok {
		return
	}
	approved, err := h.relService.ApproveFollow(c.Request.Context(), v.ID, c.Param("guest_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"approved": approved})
}

// FollowStatus 批量查询关注状态
// @Summary 关注状态
// @Tags 关系链
// @Security BearerAuth
// @Param cast_ids query string true "逗号分隔的 cast ID"
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/follows/status [get]
func (h *Handler) FollowStatus(c *gin.Context) {
	v, ok := viewer(c, model.UserGuest)
	if !ok {
		return
	}
	var q idsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	st, err := h.relService.FollowStatusBatch(c.Request.Context(), splitIDs(q.CastIDs), v.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, st)
}

// ListFollowers cast 查看自己的粉丝
// @Summary 粉丝列表
// @Tags 关系链
// @Security BearerAuth
// @Param cast_id path string true "cast ID"
// @Param limit query int false "每页数量"
// @Param cursor query string false "游标"
// @Success 200 {object} response.Response
// @Router /api/v1/casts/{cast_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	v, ok := viewer(c, model.UserCast)
	if !ok {
		return
	}
	if c.Param("cast_id") != v.ID {
		response.Forbidden(c, "followers are only visible to the cast")
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.feedService.ListFollowers(c.Request.Context(), v.ID, q.request())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// ListFollowing guest 的关注列表（不区分状态）
// @Summary 关注列表
// @Tags 关系链
// @Security BearerAuth
// @Param limit query int false "每页数量"
// @Param cursor query string false "游标"
// @Success 200 {object} response.Response
// @Router /api/v1/me/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	v, ok := viewer(c, model.UserGuest)
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.feedService.ListFollowing(c.Request.Context(), v.ID, q.request())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// Block 拉黑；cast 拉黑 guest 时同时移除关注
// @Summary 拉黑
// @Tags 拉黑
// @Accept json
// @Security BearerAuth
// @Param request body blockRequest true "被拉黑用户"
// @Success 200 {object} response.Response
// @Router /api/v1/blocks [post]
func (h *Handler) Block(c *gin.Context) {
	v, ok := viewer(c, 0)
	if !ok {
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	blocked := model.UserRef{ID: req.BlockedID, Type: req.BlockedType}
	if err := h.relService.Block(c.Request.Context(), v.Ref(), blocked); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Unblock 取消拉黑，不恢复此前的关注
// @Summary 取消拉黑
// @Tags 拉黑
// @Security BearerAuth
// @Param blocked_id path string true "被拉黑用户 ID"
// @Success 200 {object} response.Response
// @Router /api/v1/blocks/{blocked_id} [delete]
func (h *Handler) Unblock(c *gin.Context) {
	v, ok := viewer(c, 0)
	if !ok {
		return
	}
	if err := h.relService.Unblock(c.Request.Context(), v.ID, c.Param("blocked_id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// ListBlocked 拉黑列表
// @Summary 拉黑列表
// @Tags 拉黑
// @Security BearerAuth
// @Param limit query int false "每页数量"
// @Param cursor query string false "游标"
// @Success 200 {object} response.Response
// @Router /api/v1/blocks [get]
func (h *Handler) ListBlocked(c *gin.Context) {
	v, ok := viewer(c, 0)
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.feedService.ListBlocked(c.Request.Context(), v.ID, q.request())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// AddFavorite 收藏 cast
// @Summary 收藏
// @Tags 收藏
// @Accept json
// @Security BearerAuth
// @Param request body castRequest true "cast"
// @Success 200 {object} response.Response
// @Router /api/v1/favorites [post]
func (h *Handler) AddFavorite(c *gin.Context) {
	v, ok := viewer(c, model.UserGuest)
	if !ok {
		return
	}
	var req castRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.AddFavorite(c.Request.Context(), req.CastID, v.ID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// RemoveFavorite 取消收藏
// @Summary 取消收藏
// @Tags 收藏
// @Security BearerAuth
// @Param cast_id path string true "cast ID"
// @Success 200 {object} response.Response
// @Router /api/v1/favorites/{cast_id} [delete]
func (h *Handler) RemoveFavorite(c *gin.Context) {
	v, ok := viewer(c, model.UserGuest)
	if !ok {
		return
	}
	if err := h.relService.RemoveFavorite(c.Request.Context(), c.Param("cast_id"), v.ID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// FavoriteStatus 批量查询收藏状态
// @Summary 收藏状态
// @Tags 收藏
// @Security BearerAuth
// @Param cast_ids query string true "逗号分隔的 cast ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Router /api/v1/favorites/status [get]
func (h *Handler) FavoriteStatus(c *gin.Context) {
	v, ok := viewer(c, model.UserGuest)
	if !ok {
		return
	}
	var q idsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	st, err := h.relService.FavoriteStatusBatch(c.Request.Context(), splitIDs(q.CastIDs), v.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, st)
}
