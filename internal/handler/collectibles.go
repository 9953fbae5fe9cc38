package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brushquest-server/internal/models"
)

func (h *Handler) listCollectibles(c *gin.Context) {
	collectibles, err := h.collectibles.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, collectibles)
}

func (h *Handler) createCollectible(c *gin.Context) {
	var collectible models.Collectible
	if err := c.ShouldBindJSON(&collectible); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	if err := h.collectibles.Create(c.Request.Context(), &collectible); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, collectible)
}

func (h *Handler) getCollectible(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	collectible, err := h.collectibles.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, collectible)
}

func (h *Handler) updateCollectible(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var upd models.CollectibleUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	collectible, err := h.collectibles.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, collectible)
}

func (h *Handler) deleteCollectible(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.collectibles.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type generateCollectiblesRequest struct {
	Type    models.CollectibleType `json:"type"`
	WorldID *uuid.UUID             `json:"worldId"`
	Count   int                    `json:"count"`
}

// generateCollectibles covers single and batch creation: count 1 is the
// single form, anything larger is a batch.
func (h *Handler) generateCollectibles(c *gin.Context) {
	var req generateCollectiblesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	result, err := h.collectibles.Generate(c.Request.Context(), req.Type, req.WorldID, req.Count)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
