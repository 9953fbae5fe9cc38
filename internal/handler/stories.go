package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"brushquest-server/internal/models"
)

func (h *Handler) listPitches(c *gin.Context) {
	worldID, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	pitches, err := h.stories.ListPitches(c.Request.Context(), worldID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pitches)
}

type generatePitchesRequest struct {
	Count int `json:"count"`
}

func (h *Handler) generatePitches(c *gin.Context) {
	worldID, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var req generatePitchesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	pitches, err := h.stories.GeneratePitches(c.Request.Context(), worldID, req.Count)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, pitches)
}

type generateOutlineRequest struct {
	ChapterCount int `json:"chapterCount"`
}

func (h *Handler) generateOutline(c *gin.Context) {
	pitchID, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var req generateOutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	pitch, err := h.stories.GenerateOutline(c.Request.Context(), pitchID, req.ChapterCount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pitch)
}

func (h *Handler) generateStory(c *gin.Context) {
	pitchID, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	result, err := h.stories.GenerateStory(c.Request.Context(), pitchID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) listStories(c *gin.Context) {
	worldID, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	stories, err := h.stories.ListByWorld(c.Request.Context(), worldID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) getStory(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	story, err := h.stories.GetStory(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) updateStory(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var upd models.StoryUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	story, err := h.stories.UpdateStory(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) deleteStory(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.stories.DeleteStory(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type publishRequest struct {
	Publish *bool `json:"publish"`
}

// publishStory toggles publication. An omitted publish field defaults to true.
func (h *Handler) publishStory(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	publish := true
	if req.Publish != nil {
		publish = *req.Publish
	}
	story, err := h.stories.SetPublished(c.Request.Context(), id, publish)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) regenerateMusic(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	jobID, err := h.stories.RegenerateMusic(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}

func (h *Handler) listChapters(c *gin.Context) {
	storyID, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	// ?chapter=N narrows to one chapter by number.
	if chapterParam := c.Query("chapter"); chapterParam != "" {
		number, err := strconv.Atoi(chapterParam)
		if err != nil {
			respondError(c, h.logger, models.ErrValidation)
			return
		}
		chapter, err := h.stories.GetChapter(c.Request.Context(), storyID, number)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, chapter)
		return
	}
	chapters, err := h.stories.ListChapters(c.Request.Context(), storyID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (h *Handler) listReferences(c *gin.Context) {
	storyID, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	refs, err := h.stories.ListReferences(c.Request.Context(), storyID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, refs)
}

func (h *Handler) updateChapter(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var upd models.ChapterUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	chapter, err := h.stories.UpdateChapter(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (h *Handler) listSegments(c *gin.Context) {
	chapterID, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	segments, err := h.stories.ListSegments(c.Request.Context(), chapterID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, segments)
}

func (h *Handler) getSegment(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	segment, err := h.stories.GetSegment(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, segment)
}

func (h *Handler) updateSegment(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var upd models.SegmentUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	segment, err := h.stories.UpdateSegment(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, segment)
}
