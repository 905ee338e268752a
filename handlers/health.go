package handlers

import (
	"net/http"
	"time"

	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/pkg/logger"
	"github.com/gin-gonic/gin"
)

// DocumentReader is satisfied by *document.Store.
type DocumentReader interface {
	Read() (*document.Document, error)
}

var startTime = time.Now()

// RegisterHealth mounts /health (liveness) and /ready, which is 200 only
// while the document can be read.
func RegisterHealth(r *gin.Engine, store DocumentReader) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"store": true}
		if _, err := store.Read(); err != nil {
			logger.Warnf("readiness: store unavailable: %v", err)
			deps["store"] = false
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})
}
