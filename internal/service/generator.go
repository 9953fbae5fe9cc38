package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"brushquest-server/internal/ai"
	"brushquest-server/internal/models"
)

const (
	segmentsPerChapter     = 5
	segmentDurationSeconds = 15
)

// brushingPromptText is shown during segments that carry a zone cue.
var brushingPromptText = map[models.BrushingZone]string{
	models.ZoneTopLeft:     "Brush the top left side while you listen!",
	models.ZoneTopRight:    "Now the top right side, little circles!",
	models.ZoneBottomLeft:  "Down to the bottom left, keep going!",
	models.ZoneBottomRight: "Bottom right now, you're doing great!",
	models.ZoneTongue:      "Finish with a gentle tongue brush!",
}

// promptedSegments are the 0-based segment indices that carry a user-facing
// brushing cue. The other segments let the child just listen.
var promptedSegments = map[int]bool{1: true, 3: true, 4: true}

// chapterPayload is the strict shape expected from one chapter-generation call.
type chapterPayload struct {
	Title       string           `json:"title"`
	Recap       *string          `json:"recap"`
	Segments    []segmentPayload `json:"segments"`
	Cliffhanger string           `json:"cliffhanger"`
	Teaser      string           `json:"teaser"`
}

type segmentPayload struct {
	Text        string `json:"text"`
	ImagePrompt string `json:"imagePrompt"`
}

// generateChapters walks the outline in order, generating and persisting one
// chapter per entry. The previous chapter's cliffhanger is carried as a loop
// accumulator: chapter i cannot be written before chapter i-1, so the loop is
// strictly sequential. Each chapter commits as one transaction; a mid-run
// failure leaves the earlier chapters persisted and the story recoverable in
// "generating" status.
func (s *StoryService) generateChapters(ctx context.Context, world *models.World, story *models.Story, outline []models.OutlineEntry) ([]models.Chapter, error) {
	chapters := make([]models.Chapter, 0, len(outline))
	cliffhanger := ""

	for i, entry := range outline {
		isFinal := i == len(outline)-1
		payload, err := s.generateChapter(ctx, world, story, entry, cliffhanger, isFinal)
		if err != nil {
			return chapters, fmt.Errorf("chapter %d: %w", entry.Chapter, err)
		}

		chapter := models.Chapter{
			ID:            uuid.New(),
			StoryID:       story.ID,
			ChapterNumber: entry.Chapter,
			Title:         payload.Title,
			Recap:         payload.Recap,
			Cliffhanger:   payload.Cliffhanger,
			Teaser:        payload.Teaser,
		}
		if isFinal {
			chapter.Cliffhanger = ""
			chapter.Teaser = ""
		}
		segments := decorateSegments(chapter.ID, payload.Segments)

		if err := s.stories.CreateChapter(ctx, &chapter, segments); err != nil {
			return chapters, fmt.Errorf("persist chapter %d: %w", entry.Chapter, err)
		}
		chapters = append(chapters, chapter)
		cliffhanger = chapter.Cliffhanger
	}
	return chapters, nil
}

func (s *StoryService) generateChapter(ctx context.Context, world *models.World, story *models.Story, entry models.OutlineEntry, prevCliffhanger string, isFinal bool) (*chapterPayload, error) {
	out, err := s.text.Generate(ctx, chapterPrompt(world, story, entry, prevCliffhanger, isFinal))
	if err != nil {
		return nil, err
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return nil, err
	}
	var payload chapterPayload
	if err := ai.DecodeStrict(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Segments) != segmentsPerChapter {
		return nil, fmt.Errorf("%w: expected %d segments, got %d",
			models.ErrMalformedOutput, segmentsPerChapter, len(payload.Segments))
	}
	for i, seg := range payload.Segments {
		if seg.Text == "" {
			return nil, fmt.Errorf("%w: segment %d has empty text", models.ErrMalformedOutput, i+1)
		}
	}
	if entry.Chapter == 1 {
		payload.Recap = nil
	}
	return &payload, nil
}

// decorateSegments turns raw segment payloads into persistable rows, cycling
// brushing zones by index and attaching the fixed cue text to the prompted
// indices only.
func decorateSegments(chapterID uuid.UUID, payloads []segmentPayload) []models.Segment {
	segments := make([]models.Segment, 0, len(payloads))
	for i, p := range payloads {
		seg := models.Segment{
			ID:              uuid.New(),
			ChapterID:       chapterID,
			Position:        i + 1,
			Text:            p.Text,
			DurationSeconds: segmentDurationSeconds,
			ImagePrompt:     p.ImagePrompt,
			ReferenceIDs:    []uuid.UUID{},
		}
		if promptedSegments[i] {
			zone := models.BrushingZones[i%len(models.BrushingZones)]
			prompt := brushingPromptText[zone]
			seg.BrushingZone = &zone
			seg.BrushingPrompt = &prompt
		}
		segments = append(segments, seg)
	}
	return segments
}
