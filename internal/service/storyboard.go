package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"brushquest-server/internal/ai"
	"brushquest-server/internal/models"
)

// extractedReference is the strict shape of one entry from the
// reference-extraction call.
type extractedReference struct {
	Type        models.ReferenceType `json:"type"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
}

// enrichStory runs the two post-generation passes: reference extraction over
// the full chapter text, then per-chapter storyboards. Both are non-fatal;
// a failure leaves the story complete but without enrichment.
func (s *StoryService) enrichStory(ctx context.Context, storyID uuid.UUID, chapters []models.Chapter) {
	if err := s.extractReferences(ctx, storyID, chapters); err != nil {
		s.logger.Warn("reference extraction failed",
			zap.String("storyID", storyID.String()), zap.Error(err))
	}
	refs, err := s.stories.ListReferences(ctx, storyID)
	if err != nil {
		s.logger.Warn("listing references for storyboard failed",
			zap.String("storyID", storyID.String()), zap.Error(err))
		return
	}
	for i := range chapters {
		if err := s.buildStoryboard(ctx, refs, &chapters[i]); err != nil {
			s.logger.Warn("storyboard generation failed",
				zap.String("storyID", storyID.String()),
				zap.Int("chapter", chapters[i].ChapterNumber), zap.Error(err))
		}
	}
}

// extractReferences asks the model for visual entities the bible missed and
// persists the ones that do not duplicate an existing reference.
func (s *StoryService) extractReferences(ctx context.Context, storyID uuid.UUID, chapters []models.Chapter) error {
	existing, err := s.stories.ListReferences(ctx, storyID)
	if err != nil {
		return err
	}
	texts := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		segments, err := s.stories.ListSegments(ctx, ch.ID)
		if err != nil {
			return err
		}
		var b strings.Builder
		for _, seg := range segments {
			b.WriteString(seg.Text)
			b.WriteString(" ")
		}
		texts = append(texts, b.String())
	}

	out, err := s.text.Generate(ctx, referenceExtractionPrompt(existing, texts))
	if err != nil {
		return err
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return err
	}
	var extracted []extractedReference
	if err := ai.DecodeStrict(raw, &extracted); err != nil {
		return err
	}

	sortOrder := len(existing)
	var fresh []models.StoryReference
	for _, e := range extracted {
		if e.Name == "" || isDuplicateReference(existing, e.Type, e.Name) {
			continue
		}
		ref := models.StoryReference{
			ID:          uuid.New(),
			StoryID:     storyID,
			Type:        e.Type,
			Name:        e.Name,
			Description: e.Description,
			Source:      models.ReferenceSourceExtracted,
			SortOrder:   sortOrder,
		}
		fresh = append(fresh, ref)
		existing = append(existing, ref)
		sortOrder++
	}
	if len(fresh) == 0 {
		return nil
	}
	return s.stories.CreateReferences(ctx, fresh)
}

// isDuplicateReference matches by case-insensitive substring containment in
// either direction, same type only: "Luna" duplicates "Luna the cat".
func isDuplicateReference(existing []models.StoryReference, refType models.ReferenceType, name string) bool {
	lower := strings.ToLower(name)
	for _, ref := range existing {
		if ref.Type != refType {
			continue
		}
		refLower := strings.ToLower(ref.Name)
		if strings.Contains(refLower, lower) || strings.Contains(lower, refLower) {
			return true
		}
	}
	return false
}

// buildStoryboard makes one call per chapter and writes staging metadata plus
// matched reference ids onto each segment.
func (s *StoryService) buildStoryboard(ctx context.Context, refs []models.StoryReference, chapter *models.Chapter) error {
	segments, err := s.stories.ListSegments(ctx, chapter.ID)
	if err != nil {
		return err
	}

	out, err := s.text.Generate(ctx, storyboardPrompt(refs, chapter, segments))
	if err != nil {
		return err
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return err
	}
	var boards []models.SegmentStoryboard
	if err := ai.DecodeStrict(raw, &boards); err != nil {
		return err
	}

	for i := range segments {
		if i >= len(boards) {
			break
		}
		board := boards[i]
		refIDs := matchReferences(refs, board)
		if err := s.stories.SetSegmentStoryboard(ctx, segments[i].ID, &board, refIDs); err != nil {
			return err
		}
	}
	return nil
}

// matchReferences resolves the storyboard's entity names back to persisted
// reference ids with the same substring-containment heuristic used for
// deduplication.
func matchReferences(refs []models.StoryReference, board models.SegmentStoryboard) []uuid.UUID {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	match := func(name string) {
		lower := strings.ToLower(name)
		for _, ref := range refs {
			refLower := strings.ToLower(ref.Name)
			if strings.Contains(refLower, lower) || strings.Contains(lower, refLower) {
				if !seen[ref.ID] {
					seen[ref.ID] = true
					ids = append(ids, ref.ID)
				}
			}
		}
	}
	for _, name := range board.Characters {
		match(name)
	}
	if board.Location != "" {
		match(board.Location)
	}
	return ids
}
