package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/folio-cms/folio/internal/config"
	"github.com/folio-cms/folio/internal/sessions"
	"github.com/folio-cms/folio/internal/tokens"
	"github.com/folio-cms/folio/internal/users"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/folio-cms/folio/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest is the owner's email/password sign-in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	blacklist   *sessions.Blacklist
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, bl *sessions.Blacklist) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, blacklist: bl}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// invalidCredentials is the only answer to a failed sign-in: no hint
// whether the email exists.
func invalidCredentials(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, access string, ttl time.Duration) {
	secure := h.cfg.Server.Environment == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, access, int(ttl.Seconds()), "/", "", secure, true)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidCredentials(c)
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, users.ErrBadPassword) {
			logger.Errorf("login: user lookup failed: %v", err)
		}
		invalidCredentials(c)
		return
	}
	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.Sub, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	ttl := h.cfg.JWT.AccessTokenTTL
	access, err := tokens.GenerateAccessToken(h.cfg, u, ttl)
	if err != nil {
		logger.Errorf("failed to create access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	h.setTokenCookie(c, access, ttl)
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "refreshToken": rft, "user": u, "expiresIn": int(ttl.Seconds())})
}

// Refresh rotates the refresh token and issues a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, next, err := h.sessionsSvc.Rotate(c.Request.Context(), req.RefreshToken, h.cfg.JWT.RefreshTokenTTL)
	if errors.Is(err, sessions.ErrInvalidRefresh) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if err != nil {
		logger.Errorf("refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	u, err := h.usersSvc.GetBySub(c.Request.Context(), sess.Sub)
	if err != nil || u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	ttl := h.cfg.JWT.AccessTokenTTL
	access, err := tokens.GenerateAccessToken(h.cfg, u, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	h.setTokenCookie(c, access, ttl)
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "refreshToken": next, "expiresIn": int(ttl.Seconds())})
}

// Logout drops the refresh session and blacklists the presented access
// token for the rest of its lifetime. Signing out twice is fine.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	access := c.GetString(middleware.TokenKey)
	if access == "" {
		access, _ = c.Cookie(middleware.TokenCookie)
	}
	if access != "" {
		if ttl := remaining(access); ttl > 0 {
			if err := h.blacklist.Revoke(c.Request.Context(), access, ttl); err != nil {
				logger.Errorf("failed to blacklist access token: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
				return
			}
		}
	}
	if req.RefreshToken != "" {
		if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
			return
		}
	}
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// remaining reads exp without checking the signature; the token is only
// being put on the blacklist.
func remaining(raw string) time.Duration {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}

// Me returns the signed-in owner.
func (h *AuthHandler) Me(c *gin.Context) {
	sub := middleware.Subject(c)
	u, err := h.usersSvc.GetBySub(c.Request.Context(), sub)
	if err == nil && u != nil {
		c.JSON(http.StatusOK, gin.H{"user": u})
		return
	}
	if claims, ok := c.Get(middleware.ClaimsKey); ok {
		if cm, ok := claims.(map[string]interface{}); ok {
			if u, err := h.usersSvc.UpsertFromClaims(c.Request.Context(), cm); err == nil && u != nil {
				c.JSON(http.StatusOK, gin.H{"user": u})
				return
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"claims": c.MustGet(middleware.ClaimsKey)})
}
