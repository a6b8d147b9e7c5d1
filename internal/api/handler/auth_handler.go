package handler

import (
	"errors"
	"net/http"

	"syntagma/internal/api/dto"
	"syntagma/internal/api/middleware"
	"syntagma/internal/api/response"
	"syntagma/internal/service"
	"syntagma/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Verify 校验 TOTP 动态码并写入管理会话 cookie
// @Summary 二次验证
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.VerifyTwoFactorRequest true "动态码"
// @Success 200 {object} response.MessageResponse "验证通过"
// @Failure 401 {object} response.ErrorResponse "动态码无效"
// @Router /verify-2fa [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req dto.VerifyTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.authService.Verify(req.Code, req.Password)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookie, session.Token, int(session.MaxAge.Seconds()), "/", "", h.authService.SecureCookie(), true)
	response.Message(c, "2FA code valid")
}

// Status 当前请求是否还需要二次验证
// @Summary 二次验证状态
// @Tags 认证
// @Produce json
// @Success 200 {object} dto.TwoFactorStatusResponse
// @Router /check-2fa-status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	token, _ := c.Cookie(middleware.AdminCookie)
	response.OK(c, dto.TwoFactorStatusResponse{Required: !h.authService.Authenticated(token)})
}

func handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrTwoFactorNotConfigured):
		logger.Error("Two-factor verification is not configured")
		response.InternalError(c, err.Error())
	default:
		logger.Error("Auth operation failed", zap.Error(err))
		response.InternalError(c, "Internal Server Error")
	}
}
