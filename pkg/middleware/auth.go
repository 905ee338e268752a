package middleware

import (
	"errors"
	"net/http"

	"github.com/acompanha/acompanha/internal/sessions"
	"github.com/acompanha/acompanha/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the verified sessions.Identity.
const IdentityKey = "identity"

// SessionVerifier is the minimal interface the session middleware depends on
type SessionVerifier interface {
	VerifySession(token string) (sessions.Identity, error)
}

// CSRFVerifier is the minimal interface the CSRF middleware depends on
type CSRFVerifier interface {
	VerifyCSRF(cookieToken, headerToken string) error
}

// RequireSession verifies the session cookie and stores the identity in the context.
func RequireSession(v SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(sessions.SessionCookie)
		id, err := v.VerifySession(token)
		if err != nil {
			reason := "invalid"
			if token == "" {
				reason = "missing"
			}
			metrics.AuthFailures.WithLabelValues("session_" + reason).Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.Set(IdentityKey, id)
		c.Next()
	}
}

// RequireCSRF enforces the double-submit check on state-changing methods.
// Safe methods pass through untouched.
func RequireCSRF(v CSRFVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}
		cookie, _ := c.Cookie(sessions.CSRFCookie)
		if err := v.VerifyCSRF(cookie, c.GetHeader(sessions.CSRFHeader)); err != nil {
			if !errors.Is(err, sessions.ErrCSRF) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "csrf check failed"})
				return
			}
			metrics.AuthFailures.WithLabelValues("csrf").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "csrf check failed"})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity set by RequireSession.
func IdentityFrom(c *gin.Context) (sessions.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return sessions.Identity{}, false
	}
	id, ok := v.(sessions.Identity)
	return id, ok
}
