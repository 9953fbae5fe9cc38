package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"brushquest-server/internal/ai"
	"brushquest-server/internal/models"
)

const defaultChapterCount = 5

type pitchPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GeneratePitches invents story ideas for a world. Pitches are created without
// an outline; GenerateOutline fills one in before the pitch can become a story.
func (s *StoryService) GeneratePitches(ctx context.Context, worldID uuid.UUID, count int) ([]models.StoryPitch, error) {
	if count <= 0 {
		count = 3
	}
	world, err := s.worlds.GetByID(ctx, worldID)
	if err != nil {
		return nil, err
	}

	out, err := s.text.Generate(ctx, pitchesPrompt(world, count))
	if err != nil {
		return nil, fmt.Errorf("generate pitches: %w", err)
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return nil, fmt.Errorf("pitches: %w", err)
	}
	var payloads []pitchPayload
	if err := ai.DecodeStrict(raw, &payloads); err != nil {
		return nil, fmt.Errorf("pitches: %w", err)
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("%w: no pitches in output", models.ErrMalformedOutput)
	}

	pitches := make([]models.StoryPitch, 0, len(payloads))
	for _, p := range payloads {
		if p.Title == "" {
			continue
		}
		pitch := models.StoryPitch{
			ID:          uuid.New(),
			WorldID:     worldID,
			Title:       p.Title,
			Description: p.Description,
			Outline:     []models.OutlineEntry{},
		}
		if err := s.stories.CreatePitch(ctx, &pitch); err != nil {
			return nil, err
		}
		pitches = append(pitches, pitch)
	}
	return pitches, nil
}

// GenerateOutline writes (or rewrites) a pitch's chapter outline.
func (s *StoryService) GenerateOutline(ctx context.Context, pitchID uuid.UUID, chapterCount int) (*models.StoryPitch, error) {
	if chapterCount <= 0 {
		chapterCount = defaultChapterCount
	}
	pitch, err := s.stories.GetPitch(ctx, pitchID)
	if err != nil {
		return nil, err
	}
	world, err := s.worlds.GetByID(ctx, pitch.WorldID)
	if err != nil {
		return nil, err
	}

	out, err := s.text.Generate(ctx, outlinePrompt(world, pitch, chapterCount))
	if err != nil {
		return nil, fmt.Errorf("generate outline: %w", err)
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	var outline []models.OutlineEntry
	if err := ai.DecodeStrict(raw, &outline); err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	if len(outline) != chapterCount {
		return nil, fmt.Errorf("%w: expected %d outline entries, got %d",
			models.ErrMalformedOutput, chapterCount, len(outline))
	}
	for i := range outline {
		// Chapter numbers are positional; models occasionally renumber.
		outline[i].Chapter = i + 1
	}

	return s.stories.ReplacePitchOutline(ctx, pitchID, outline)
}

// ListPitches returns the pitches of a world, newest first.
func (s *StoryService) ListPitches(ctx context.Context, worldID uuid.UUID) ([]models.StoryPitch, error) {
	return s.stories.ListPitches(ctx, worldID)
}
