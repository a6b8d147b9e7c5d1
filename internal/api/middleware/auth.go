package middleware

import (
	"syntagma/internal/api/response"

	"github.com/gin-gonic/gin"
)

const (
	// AdminCookie 二次验证通过后写入的会话 cookie
	AdminCookie = "authenticated"
	// TwoFactorHeader 未通过二次验证时返回给前端的提示头
	TwoFactorHeader = "x-2fa-required"

	contextKeyAdmin = "isAdmin"
)

// SessionChecker 校验管理会话 token
type SessionChecker interface {
	Authenticated(token string) bool
}

// AdminSession 解析管理会话但不拦截请求，结果可通过 IsAdmin 获取
func AdminSession(checker SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKeyAdmin, hasValidSession(c, checker))
		c.Next()
	}
}

// AdminRequired 要求有效的管理会话，否则返回 401 并设置 x-2fa-required
func AdminRequired(checker SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasValidSession(c, checker) {
			RejectAdmin(c)
			return
		}
		c.Set(contextKeyAdmin, true)
		c.Next()
	}
}

// RejectAdmin 以需要二次验证的方式拒绝请求
func RejectAdmin(c *gin.Context) {
	c.Header(TwoFactorHeader, "true")
	response.Unauthorized(c, "2FA verification required")
	c.Abort()
}

// IsAdmin 当前请求是否带有效管理会话
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(contextKeyAdmin)
}

func hasValidSession(c *gin.Context, checker SessionChecker) bool {
	token, err := c.Cookie(AdminCookie)
	if err != nil || token == "" {
		return false
	}
	return checker.Authenticated(token)
}
