package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/internal/models"
	"github.com/acompanha/acompanha/internal/records/repository"
	"github.com/acompanha/acompanha/internal/sessions"
	"github.com/acompanha/acompanha/internal/users"
	"github.com/acompanha/acompanha/pkg/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps a domain error to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	var ve *models.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, sessions.ErrAuth):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, sessions.ErrCSRF):
		return http.StatusForbidden, "csrf check failed"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "card not found"
	case errors.Is(err, repository.ErrDuplicateID):
		return http.StatusConflict, "card already exists"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request canceled"
	}
	return http.StatusInternalServerError, "internal error"
}

// respondError writes {"error": msg}. Server-side failures are logged with
// their cause; the client only sees a generic message.
func respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		var se *document.StorageError
		if errors.As(err, &se) {
			logger.Errorf("%s %s: storage failure (%s): %v", c.Request.Method, c.FullPath(), se.Op, err)
		} else {
			logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
