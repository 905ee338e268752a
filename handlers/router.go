package handlers

import (
	"github.com/acompanha/acompanha/internal/sessions"
	"github.com/acompanha/acompanha/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Gate         *sessions.Gate
	Users        Authenticator
	Cards        CardService
	Store        DocumentReader
	LoginLimiter gin.HandlerFunc
	StaticDir    string
	MaxBodyBytes int64
}

// NewRouter wires middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.SecurityHeaders())

	RegisterHealth(r, d.Store)
	RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if d.MaxBodyBytes > 0 {
		api.Use(middleware.BodyLimit(d.MaxBodyBytes))
	}
	NewAuthHandler(d.Users, d.Gate).Register(api, d.LoginLimiter)
	NewCardsHandler(d.Cards, d.Gate).Register(api)

	if d.StaticDir != "" {
		RegisterStatic(r, d.StaticDir)
	}
	return r
}
