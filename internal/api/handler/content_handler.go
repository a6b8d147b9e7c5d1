package handler

import (
	"errors"

	"syntagma/internal/api/dto"
	"syntagma/internal/api/response"
	"syntagma/internal/model"
	"syntagma/internal/service"
	"syntagma/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ContentHandler struct {
	contentService *service.ContentService
}

func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// ListArticles GET /api/articles
// @Summary 条文列表
// @Tags 条文
// @Produce json
// @Success 200 {array} model.Article
// @Router /articles [get]
func (h *ContentHandler) ListArticles(c *gin.Context) {
	articles, err := h.contentService.ListArticles(c.Request.Context())
	if err != nil {
		handleContentError(c, err)
		return
	}
	response.OK(c, articles)
}

// SaveArticles POST /api/articles（整体替换）
// @Summary 保存条文
// @Tags 条文
// @Accept json
// @Produce json
// @Param request body []model.Article true "全部条文"
// @Success 200 {object} response.MessageResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /articles [post]
func (h *ContentHandler) SaveArticles(c *gin.Context) {
	var articles []model.Article
	if err := c.ShouldBindJSON(&articles); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.contentService.SaveArticles(c.Request.Context(), articles); err != nil {
		handleContentError(c, err)
		return
	}
	response.Message(c, "Articles saved successfully")
}

// ResolveArticle GET /api/articles/resolve?articleId=
// @Summary 查询条文标题
// @Tags 条文
// @Produce json
// @Param articleId query string true "条文ID"
// @Success 200 {object} dto.ArticleNameResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /articles/resolve [get]
func (h *ContentHandler) ResolveArticle(c *gin.Context) {
	name, err := h.contentService.ResolveArticleName(c.Request.Context(), c.Query("articleId"))
	if err != nil {
		handleContentError(c, err)
		return
	}
	response.OK(c, dto.ArticleNameResponse{Name: name})
}

// ListFAQs GET /api/faqs
// @Summary 常见问题列表
// @Tags 常见问题
// @Produce json
// @Success 200 {array} model.FAQ
// @Router /faqs [get]
func (h *ContentHandler) ListFAQs(c *gin.Context) {
	faqs, err := h.contentService.ListFAQs(c.Request.Context())
	if err != nil {
		handleContentError(c, err)
		return
	}
	response.OK(c, faqs)
}

// SaveFAQs POST /api/faqs（整体替换）
// @Summary 保存常见问题
// @Tags 常见问题
// @Accept json
// @Produce json
// @Param request body []model.FAQ true "全部常见问题"
// @Success 200 {object} response.MessageResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /faqs [post]
func (h *ContentHandler) SaveFAQs(c *gin.Context) {
	var faqs []model.FAQ
	if err := c.ShouldBindJSON(&faqs); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.contentService.SaveFAQs(c.Request.Context(), faqs); err != nil {
		handleContentError(c, err)
		return
	}
	response.Message(c, "FAQs updated successfully")
}

func handleContentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrArticleIDRequired):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidContent):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrArticleNotFound):
		response.NotFound(c, err.Error())
	default:
		logger.Error("Content operation failed", zap.Error(err))
		response.InternalError(c, "Internal Server Error")
	}
}
