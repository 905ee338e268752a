package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/acompanha/acompanha/internal/models"
	"github.com/acompanha/acompanha/internal/sessions"
	"github.com/acompanha/acompanha/pkg/logger"
	"github.com/acompanha/acompanha/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// LoginRequest is the password login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticator checks email/password credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// AuthHandler holds dependencies
type AuthHandler struct {
	users Authenticator
	gate  *sessions.Gate
}

func NewAuthHandler(u Authenticator, g *sessions.Gate) *AuthHandler {
	return &AuthHandler{users: u, gate: g}
}

// Register mounts /login, /logout and /me on rg. limiter guards /login only.
func (h *AuthHandler) Register(rg *gin.RouterGroup, limiter gin.HandlerFunc) {
	login := []gin.HandlerFunc{h.Login}
	if limiter != nil {
		login = append([]gin.HandlerFunc{limiter}, login...)
	}
	rg.POST("/login", login...)

	authed := rg.Group("", middleware.RequireSession(h.gate))
	authed.POST("/logout", h.Logout)
	authed.GET("/me", h.Me)
}

// Login verifies credentials and sets the session and CSRF cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	cr, err := h.gate.Issue(*u)
	if err != nil {
		respondError(c, err)
		return
	}
	h.gate.SetCookies(c, cr)
	logger.Infof("login: %s", u.Email)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Logout clears both cookies. The session token itself stays valid until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.gate.Revoke(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the identity carried by the session.
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, sessions.ErrAuth)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": gin.H{"email": id.Email, "role": id.Role}})
}
