package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brushquest-server/internal/models"
)

func (h *Handler) listPoses(c *gin.Context) {
	characterType := models.CharacterType(c.DefaultQuery("type", string(models.CharacterChild)))
	poses, err := h.sprites.ListPoses(c.Request.Context(), characterType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, poses)
}

func (h *Handler) createPose(c *gin.Context) {
	var pose models.PoseDefinition
	if err := c.ShouldBindJSON(&pose); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	if err := h.sprites.CreatePose(c.Request.Context(), &pose); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, pose)
}

func (h *Handler) deletePose(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.sprites.DeletePose(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listSprites(c *gin.Context) {
	ownerType := models.CharacterType(c.Query("ownerType"))
	ownerID, err := uuid.Parse(c.Query("ownerId"))
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("%w: invalid ownerId", models.ErrValidation))
		return
	}
	sprites, err := h.sprites.ListSprites(c.Request.Context(), ownerType, ownerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sprites)
}

type generateSpriteRequest struct {
	PoseID    uuid.UUID            `json:"poseId"`
	OwnerType models.CharacterType `json:"ownerType"`
	OwnerID   uuid.UUID            `json:"ownerId"`
}

func (h *Handler) generateSprite(c *gin.Context) {
	var req generateSpriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	jobID, err := h.sprites.Generate(c.Request.Context(), req.PoseID, req.OwnerType, req.OwnerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}

type generateAllSpritesRequest struct {
	OwnerType models.CharacterType `json:"ownerType"`
	OwnerID   uuid.UUID            `json:"ownerId"`
}

func (h *Handler) generateAllSprites(c *gin.Context) {
	var req generateAllSpritesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	jobID, err := h.sprites.GenerateAll(c.Request.Context(), req.OwnerType, req.OwnerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}
