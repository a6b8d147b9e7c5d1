package dto

import (
	"time"

	"syntagma/internal/markdown"
	"syntagma/internal/model"
)

// CommentCreateRequest 发表评论请求
type CommentCreateRequest struct {
	Username string  `json:"username" binding:"max=100"`
	Comment  string  `json:"comment" binding:"max=10000"`
	ParentID *string `json:"parent_id"`
}

// CommentActionRequest 评论操作请求：投票或置顶
type CommentActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// CommentInfo 评论信息
type CommentInfo struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Comment     string    `json:"comment"`
	CommentHTML string    `json:"comment_html"`
	Upvotes     int64     `json:"upvotes"`
	Downvotes   int64     `json:"downvotes"`
	ParentID    *string   `json:"parent_id"`
	Depth       int       `json:"depth"`
	Pinned      bool      `json:"pinned"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCommentInfo 由模型构造响应，附带渲染后的 HTML
func NewCommentInfo(c *model.Comment) CommentInfo {
	return CommentInfo{
		ID:          c.ID,
		Username:    c.Username,
		Comment:     c.Body,
		CommentHTML: markdown.Render(c.Body),
		Upvotes:     c.Upvotes,
		Downvotes:   c.Downvotes,
		ParentID:    c.ParentID,
		Depth:       c.Depth,
		Pinned:      c.Pinned,
		CreatedAt:   c.CreatedAt,
	}
}

// NewCommentInfos 批量转换
func NewCommentInfos(comments []model.Comment) []CommentInfo {
	items := make([]CommentInfo, 0, len(comments))
	for i := range comments {
		items = append(items, NewCommentInfo(&comments[i]))
	}
	return items
}

// CommentListResponse GET /api/comments 响应
type CommentListResponse struct {
	Comments []CommentInfo `json:"comments"`
}

// CommentResponse 单条评论响应
type CommentResponse struct {
	Comment CommentInfo `json:"comment"`
}

// CommentSearchRequest 管理后台评论搜索参数
type CommentSearchRequest struct {
	Q        string `form:"q"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CommentSearchData 评论搜索结果
type CommentSearchData struct {
	Comments   []CommentInfo `json:"comments"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int64         `json:"total_pages"`
}
