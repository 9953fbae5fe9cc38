package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"brushquest-server/internal/models"
)

func (h *Handler) listPets(c *gin.Context) {
	pets, err := h.pets.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pets)
}

func (h *Handler) createPet(c *gin.Context) {
	var pet models.Pet
	if err := c.ShouldBindJSON(&pet); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	if err := h.pets.Create(c.Request.Context(), &pet); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, pet)
}

func (h *Handler) getPet(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	pet, err := h.pets.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

func (h *Handler) updatePet(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var upd models.PetUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	pet, err := h.pets.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

func (h *Handler) deletePet(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.pets.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type generateSuggestionsRequest struct {
	Count int `json:"count"`
}

func (h *Handler) generatePetSuggestions(c *gin.Context) {
	var req generateSuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	suggestions, err := h.pets.GenerateSuggestions(c.Request.Context(), req.Count)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, suggestions)
}

func (h *Handler) listPetSuggestions(c *gin.Context) {
	suggestions, err := h.pets.ListSuggestions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

func (h *Handler) approvePetSuggestion(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	pet, err := h.pets.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, pet)
}

func (h *Handler) rejectPetSuggestion(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.pets.Reject(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type savePetAudioRequest struct {
	NameAudioURL       string `json:"nameAudioUrl"`
	PossessiveAudioURL string `json:"possessiveAudioUrl"`
}

func (h *Handler) savePetAudio(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var req savePetAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	if req.NameAudioURL == "" && req.PossessiveAudioURL == "" {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	pet, err := h.pets.SaveAudio(c.Request.Context(), id, req.NameAudioURL, req.PossessiveAudioURL)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}
