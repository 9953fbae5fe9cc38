package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"brushquest-server/internal/models"
)

// getJob exposes the status of a queued background job.
func (h *Handler) getJob(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	job, err := h.jobs.Get(id)
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("%w: %v", models.ErrNotFound, err))
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) cancelJob(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.jobs.Cancel(id); err != nil {
		respondError(c, h.logger, fmt.Errorf("%w: %v", models.ErrConflict, err))
		return
	}
	c.Status(http.StatusNoContent)
}
