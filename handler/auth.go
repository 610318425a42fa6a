package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/termdesk/termdesk/config"
	"github.com/termdesk/termdesk/middleware"
	"github.com/termdesk/termdesk/service"
)

type AuthHandler struct {
	config *config.Config
	store  *service.SessionStore
}

func NewAuthHandler(cfg *config.Config, store *service.SessionStore) *AuthHandler {
	return &AuthHandler{config: cfg, store: store}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the token plus a snapshot of the desk the
// caller is about to work against.
type LoginResponse struct {
	Token          string `json:"token"`
	ExpiresAt      string `json:"expires_at"`
	Username       string `json:"username"`
	Tenant         string `json:"tenant"`
	ActiveSessions int    `json:"active_sessions"`
}

// Login exchanges configured desk credentials for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user := h.config.FindUser(req.Username)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(req.Password)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(user.Username, user.Tenant, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:          token,
		ExpiresAt:      expiresAt.Format(time.RFC3339),
		Username:       user.Username,
		Tenant:         user.Tenant,
		ActiveSessions: len(h.store.GetByTenant(user.Tenant)),
	})
}

// GetCurrentUser returns the authenticated identity and how many
// negotiations the tenant currently has open.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	username := middleware.GetUsername(c)
	tenant := middleware.GetTenant(c)

	c.JSON(http.StatusOK, gin.H{
		"username":        username,
		"tenant":          tenant,
		"active_sessions": len(h.store.GetByTenant(tenant)),
	})
}
