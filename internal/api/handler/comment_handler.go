package handler

import (
	"errors"
	"strings"

	"syntagma/internal/api/dto"
	"syntagma/internal/api/middleware"
	"syntagma/internal/api/response"
	"syntagma/internal/model"
	"syntagma/internal/service"
	"syntagma/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	actionPin   = "pin"
	actionUnpin = "unpin"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List 获取全部评论
// @Summary 评论列表
// @Description 置顶评论在前，其余按时间倒序
// @Tags 评论
// @Produce json
// @Success 200 {object} dto.CommentListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.commentService.List(c.Request.Context())
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.OK(c, dto.CommentListResponse{Comments: dto.NewCommentInfos(comments)})
}

// Create 发表评论或回复
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Param request body dto.CommentCreateRequest true "评论内容"
// @Success 200 {object} dto.CommentResponse
// @Failure 400 {object} response.ErrorResponse "参数无效或回复数已满"
// @Failure 404 {object} response.ErrorResponse "父评论不存在"
// @Failure 429 {object} response.ErrorResponse "发帖过于频繁"
// @Router /comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	var req dto.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	comment, err := h.commentService.Post(c.Request.Context(), req.Username, req.Comment, normalizeID(req.ParentID))
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.OK(c, dto.CommentResponse{Comment: dto.NewCommentInfo(comment)})
}

// Update 投票或置顶（置顶需要管理会话）
// @Summary 评论操作
// @Description action: upvote | downvote | remove_upvote | remove_downvote | pin | unpin
// @Tags 评论
// @Accept json
// @Produce json
// @Param id query string true "评论ID"
// @Param request body dto.CommentActionRequest true "操作"
// @Success 200 {object} dto.CommentResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse "置顶需要二次验证"
// @Failure 404 {object} response.ErrorResponse
// @Router /comments [put]
func (h *CommentHandler) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		response.BadRequest(c, "Comment id is required")
		return
	}

	var req dto.CommentActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	var (
		comment *model.Comment
		err     error
	)
	switch req.Action {
	case actionPin, actionUnpin:
		if !middleware.IsAdmin(c) {
			middleware.RejectAdmin(c)
			return
		}
		if req.Action == actionPin {
			comment, err = h.commentService.Pin(ctx, id)
		} else {
			comment, err = h.commentService.Unpin(ctx, id)
		}
	default:
		comment, err = h.commentService.ApplyVote(ctx, id, service.VoteAction(req.Action))
	}
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.OK(c, dto.CommentResponse{Comment: dto.NewCommentInfo(comment)})
}

// Delete 删除评论（仅管理员）
// @Summary 删除评论
// @Description 不级联删除回复
// @Tags 评论
// @Produce json
// @Param id query string true "评论ID"
// @Success 200 {object} response.MessageResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /comments [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		response.BadRequest(c, "Comment id is required")
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), id); err != nil {
		handleCommentError(c, err)
		return
	}

	response.Message(c, "Comment deleted")
}

// Search 管理后台评论搜索
// @Summary 搜索评论
// @Tags 评论
// @Produce json
// @Param q query string false "关键词"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.CommentSearchData
// @Failure 401 {object} response.ErrorResponse
// @Router /comments/search [get]
func (h *CommentHandler) Search(c *gin.Context) {
	var req dto.CommentSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query: "+err.Error())
		return
	}

	data, err := h.commentService.Search(c.Request.Context(), &req)
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.OK(c, data)
}

// normalizeID 空字符串的 parent_id 视为顶层评论
func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func handleCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrReplyLimitExceeded):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidAction):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrCommentNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrParentNotFound):
		response.NotFound(c, err.Error())
	default:
		logger.Error("Comment operation failed", zap.Error(err))
		response.InternalError(c, "Internal Server Error")
	}
}
