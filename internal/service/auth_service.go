package service

import (
	"errors"
	"strings"
	"time"

	"syntagma/internal/config"
	"syntagma/pkg/utils"
)

var (
	ErrTwoFactorNotConfigured = errors.New("2FA secret not configured")
	ErrInvalidCode            = errors.New("Invalid 2FA code")
)

// AdminSession 二次验证成功后签发的会话
type AdminSession struct {
	Token     string
	ExpiresAt time.Time
	MaxAge    time.Duration
}

type AuthService struct {
	cfg    config.AuthConfig
	issuer string
	now    func() time.Time
}

func NewAuthService(cfg config.AuthConfig, issuer string) *AuthService {
	if cfg.SessionMinutes <= 0 {
		cfg.SessionMinutes = 60
	}
	return &AuthService{cfg: cfg, issuer: issuer, now: time.Now}
}

// Verify 校验 TOTP 动态码（以及配置了哈希时的管理密码），成功后签发会话
func (s *AuthService) Verify(code, password string) (*AdminSession, error) {
	if s.cfg.TOTPSecret == "" || s.cfg.JWTSecret == "" {
		return nil, ErrTwoFactorNotConfigured
	}

	if s.cfg.AdminPasswordHash != "" && !utils.VerifyPassword(password, s.cfg.AdminPasswordHash) {
		return nil, ErrInvalidCode
	}

	now := s.now()
	if !utils.ValidateTOTP(strings.TrimSpace(code), s.cfg.TOTPSecret, now) {
		return nil, ErrInvalidCode
	}

	ttl := s.cfg.SessionDuration()
	token, err := utils.GenerateAdminToken(s.cfg.JWTSecret, s.issuer, now, ttl)
	if err != nil {
		return nil, err
	}

	return &AdminSession{Token: token, ExpiresAt: now.Add(ttl), MaxAge: ttl}, nil
}

// Authenticated 判断会话 token 是否有效
func (s *AuthService) Authenticated(token string) bool {
	if token == "" || s.cfg.JWTSecret == "" {
		return false
	}
	_, err := utils.ParseAdminToken(s.cfg.JWTSecret, token)
	return err == nil
}

// SecureCookie 会话 cookie 是否仅限 HTTPS
func (s *AuthService) SecureCookie() bool {
	return s.cfg.SecureCookie
}
