package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"brushquest-server/internal/ai"
	"brushquest-server/internal/models"
)

// buildBible makes the single pre-chapter LLM call that produces the story's
// consistency document. Failure here aborts story generation entirely: no
// chapter is ever written without a bible.
func (s *StoryService) buildBible(ctx context.Context, world *models.World, pitch *models.StoryPitch) (*models.StoryBible, error) {
	out, err := s.text.Generate(ctx, biblePrompt(world, pitch))
	if err != nil {
		return nil, fmt.Errorf("generate story bible: %w", err)
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return nil, fmt.Errorf("story bible: %w", err)
	}
	var bible models.StoryBible
	if err := ai.DecodeStrict(raw, &bible); err != nil {
		return nil, fmt.Errorf("story bible: %w", err)
	}
	if len(bible.Characters) == 0 && len(bible.Locations) == 0 {
		return nil, fmt.Errorf("%w: story bible names no characters or locations", models.ErrMalformedOutput)
	}
	return &bible, nil
}

// bibleReferences flattens a bible into persistable reference rows.
func bibleReferences(storyID uuid.UUID, bible *models.StoryBible) []models.StoryReference {
	refs := make([]models.StoryReference, 0, len(bible.Characters)+len(bible.Locations)+len(bible.Objects))
	order := 0
	for _, c := range bible.Characters {
		c := c
		refs = append(refs, models.StoryReference{
			ID:          uuid.New(),
			StoryID:     storyID,
			Type:        models.ReferenceCharacter,
			Name:        c.Name,
			Description: c.Appearance,
			Personality: &c.Personality,
			Role:        &c.Role,
			Source:      models.ReferenceSourceBible,
			SortOrder:   order,
		})
		order++
	}
	for _, l := range bible.Locations {
		l := l
		refs = append(refs, models.StoryReference{
			ID:          uuid.New(),
			StoryID:     storyID,
			Type:        models.ReferenceLocation,
			Name:        l.Name,
			Description: l.Appearance,
			Mood:        &l.Mood,
			Source:      models.ReferenceSourceBible,
			SortOrder:   order,
		})
		order++
	}
	for _, o := range bible.Objects {
		refs = append(refs, models.StoryReference{
			ID:          uuid.New(),
			StoryID:     storyID,
			Type:        models.ReferenceObject,
			Name:        o.Name,
			Description: o.Appearance,
			Source:      models.ReferenceSourceBible,
			SortOrder:   order,
		})
		order++
	}
	return refs
}
