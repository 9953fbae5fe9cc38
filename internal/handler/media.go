package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brushquest-server/internal/models"
)

// getContent serves the assembled published-content payload. The body is
// pre-marshaled (and cached), so it is written as raw JSON.
func (h *Handler) getContent(c *gin.Context) {
	data, err := h.content.Published(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

type ttsRequest struct {
	Text string `json:"text"`
}

func (h *Handler) synthesize(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	audio, err := h.media.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

type generateImageRequest struct {
	Prompt string `json:"prompt"`
	Path   string `json:"path"`
}

func (h *Handler) generateImage(c *gin.Context) {
	var req generateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	url, err := h.media.GenerateImage(c.Request.Context(), req.Prompt, req.Path)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

type generateAvatarRequest struct {
	PetID uuid.UUID `json:"petId"`
}

func (h *Handler) generateAvatar(c *gin.Context) {
	var req generateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PetID == uuid.Nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	pet, err := h.media.GenerateAvatar(c.Request.Context(), req.PetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

type generateNameAudioRequest struct {
	Name string `json:"name"`
}

func (h *Handler) generateNameAudio(c *gin.Context) {
	var req generateNameAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	url, err := h.media.GenerateNameAudio(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

type segmentAudioRequest struct {
	SegmentID uuid.UUID `json:"segmentId"`
}

func (h *Handler) generateSegmentAudio(c *gin.Context) {
	var req segmentAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SegmentID == uuid.Nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	url, err := h.media.GenerateSegmentAudio(c.Request.Context(), req.SegmentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func (h *Handler) generateSegmentImage(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	segment, err := h.media.GenerateSegmentImage(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, segment)
}
