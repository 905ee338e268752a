package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/acompanha/acompanha/internal/models"
	"github.com/acompanha/acompanha/internal/sessions"
	"github.com/acompanha/acompanha/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// CardService is the card use-case layer the handlers call into.
type CardService interface {
	List(ctx context.Context) ([]models.Card, error)
	Create(ctx context.Context, in models.CardInput) (models.Card, error)
	Update(ctx context.Context, id string, raw []byte) (models.Card, error)
	Delete(ctx context.Context, id string) error
}

type CardsHandler struct {
	svc  CardService
	gate *sessions.Gate
}

func NewCardsHandler(svc CardService, g *sessions.Gate) *CardsHandler {
	return &CardsHandler{svc: svc, gate: g}
}

// Register mounts /cards on rg. Every route needs a session; mutating routes
// also need the CSRF header.
func (h *CardsHandler) Register(rg *gin.RouterGroup) {
	cards := rg.Group("/cards", middleware.RequireSession(h.gate), middleware.RequireCSRF(h.gate))
	cards.GET("", h.List)
	cards.POST("", h.Create)
	cards.PUT("/:id", h.Update)
	cards.DELETE("/:id", h.Delete)
}

func (h *CardsHandler) List(c *gin.Context) {
	cards, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (h *CardsHandler) Create(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	in, err := models.ParseCardInput(raw)
	if err != nil {
		respondError(c, err)
		return
	}
	card, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"card": card})
}

func (h *CardsHandler) Update(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	card, err := h.svc.Update(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

func (h *CardsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
