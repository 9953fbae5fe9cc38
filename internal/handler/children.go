package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"brushquest-server/internal/models"
)

func (h *Handler) listChildren(c *gin.Context) {
	children, err := h.children.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, children)
}

func (h *Handler) createChild(c *gin.Context) {
	var child models.Child
	if err := c.ShouldBindJSON(&child); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	if err := h.children.Create(c.Request.Context(), &child); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, child)
}

func (h *Handler) getChild(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	child, err := h.children.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, child)
}

// updateChild applies a partial update. Omitted fields keep their values; an
// explicit null is honored only for the nullable foreign keys petId and
// worldId, which it clears.
func (h *Handler) updateChild(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	var upd models.ChildUpdate
	if err := json.Unmarshal(body, &upd); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	upd.ClearPet = hasExplicitNull(body, "petId")
	upd.ClearWorld = hasExplicitNull(body, "worldId")

	child, err := h.children.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, child)
}

// hasExplicitNull reports whether the request body carries key with a literal
// null value, as opposed to omitting it.
func hasExplicitNull(body []byte, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	raw, present := fields[key]
	return present && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (h *Handler) deleteChild(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.children.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) regenerateChildAudio(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	child, err := h.children.RegenerateAudio(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, child)
}
