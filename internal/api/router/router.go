package router

import (
	"time"

	"syntagma/internal/api/handler"
	"syntagma/internal/api/middleware"
	"syntagma/internal/cache"

	"github.com/gin-gonic/gin"
)

// PostLimit 发帖限流参数
type PostLimit struct {
	Limiter cache.Limiter
	Limit   int64
	Window  time.Duration
}

// Setup 注册所有业务路由
func Setup(
	r *gin.Engine,
	commentHandler *handler.CommentHandler,
	contentHandler *handler.ContentHandler,
	authHandler *handler.AuthHandler,
	sessions middleware.SessionChecker,
	postLimit PostLimit,
) {
	api := r.Group("/api", middleware.AdminSession(sessions))
	adminRequired := middleware.AdminRequired(sessions)

	// --- 评论模块 ---
	comments := api.Group("/comments")
	{
		comments.GET("", commentHandler.List)
		comments.POST("", middleware.RateLimit(postLimit.Limiter, "comments", postLimit.Limit, postLimit.Window), commentHandler.Create)
		// pin/unpin 在 handler 内校验管理会话
		comments.PUT("", commentHandler.Update)

		admin := comments.Group("", adminRequired)
		{
			admin.DELETE("", commentHandler.Delete)
			admin.GET("/search", commentHandler.Search)
		}
	}

	// --- 条文与常见问题 ---
	api.GET("/articles", contentHandler.ListArticles)
	api.GET("/articles/resolve", contentHandler.ResolveArticle)
	api.POST("/articles", adminRequired, contentHandler.SaveArticles)
	api.GET("/faqs", contentHandler.ListFAQs)
	api.POST("/faqs", adminRequired, contentHandler.SaveFAQs)

	// --- 二次验证 ---
	api.POST("/verify-2fa", authHandler.Verify)
	api.GET("/check-2fa-status", authHandler.Status)
}
