package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/castgraph/internal/api/middleware"
	"github.com/d60-Lab/castgraph/internal/service"
	"github.com/d60-Lab/castgraph/pkg/cursor"
	"github.com/d60-Lab/castgraph/pkg/response"
)

type listCommentsFunc func(context.Context, service.CommentListRequest) (cursor.Page[service.CommentView], error)

type addCommentRequest struct {
	Content  string               `json:"content"`
	ParentID string               `json:"parent_id" binding:"omitempty,ident"`
	Media    []service.MediaInput `json:"media" binding:"omitempty,dive"`
}

// hiddenAuthors 当前用户拉黑的人，评论列表中不展示
func (h *Handler) hiddenAuthors(c *gin.Context, v middleware.Viewer) ([]string, error) {
	ctx := c.Request.Context()
	casts, err := h.relService.BlockedCastIDs(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	guests, err := h.relService.BlockedGuestIDs(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return append(casts, guests...), nil
}

// ListComments 一级评论列表
// @Summary 评论列表
// @Tags 评论
// @Security BearerAuth
// @Param post_id path string true "动态 ID"
// @Param limit query int false "每页数量"
// @Param cursor query string false "游标"
// @Success 200 {object} response.Response
// @Router /api/v1/posts/{post_id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	h.listComments(c, service.CommentListRequest{PostID: c.Param("post_id")}, h.commentService.ListComments)
}

// ListReplies 某条一级评论的回复
// @Summary 回复列表
// @Tags 评论
// @Security BearerAuth
// @Param comment_id path string true "评论 ID"
// @Param limit query int false "每页数量"
// @Param cursor query string false "游标"
// @Success 200 {object} response.Response
// @Router /api/v1/comments/{comment_id}/replies [get]
func (h *Handler) ListReplies(c *gin.Context) {
	h.listComments(c, service.CommentListRequest{ParentID: c.Param("comment_id")}, h.commentService.ListReplies)
}

func (h *Handler) listComments(c *gin.Context, req service.CommentListRequest, list listCommentsFunc) {
	v, ok := viewer(c, 0)
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	exclude, err := h.hiddenAuthors(c, v)
	if err != nil {
		fail(c, err)
		return
	}
	req.ViewerID = v.ID
	req.ExcludeUserIDs = exclude
	req.PageRequest = q.request()
	page, err := list(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// AddComment 发表评论或回复
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Security BearerAuth
// @Param post_id path string true "动态 ID"
// @Param request body addCommentRequest true "评论内容"
// @Success 201 {object} response.Response{data=service.CommentView}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	v, ok := viewer(c, 0)
	if !ok {
		return
	}
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	view, err := h.commentService.AddComment(c.Request.Context(), service.AddCommentInput{
		PostID:   c.Param("post_id"),
		ParentID: req.ParentID,
		Author:   v.Ref(),
		Content:  req.Content,
		Media:    req.Media,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, view)
}

// DeleteComment 删除自己的评论，回复一并删除
// @Summary 删除评论
// @Tags 评论
// @Security BearerAuth
// @Param comment_id path string true "评论 ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/comments/{comment_id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	v, ok := viewer(c, 0)
	if !ok {
		return
	}
	if err := h.commentService.DeleteComment(c.Request.Context(), c.Param("comment_id"), v.Ref()); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}
