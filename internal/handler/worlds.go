package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"brushquest-server/internal/models"
)

func (h *Handler) listWorlds(c *gin.Context) {
	worlds, err := h.worlds.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, worlds)
}

func (h *Handler) createWorld(c *gin.Context) {
	var world models.World
	if err := c.ShouldBindJSON(&world); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	if err := h.worlds.Create(c.Request.Context(), &world); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, world)
}

type generateWorldRequest struct {
	Theme string `json:"theme"`
}

func (h *Handler) generateWorld(c *gin.Context) {
	var req generateWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	result, err := h.worlds.Generate(c.Request.Context(), req.Theme)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) getWorld(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	world, err := h.worlds.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, world)
}

func (h *Handler) updateWorld(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var upd models.WorldUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	world, err := h.worlds.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, world)
}

func (h *Handler) deleteWorld(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.worlds.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) regenerateWorldImage(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	jobID, err := h.worlds.RegenerateImage(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}
