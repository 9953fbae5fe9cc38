package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"brushquest-server/internal/ai"
	"brushquest-server/internal/models"
	"brushquest-server/internal/repository"
	"brushquest-server/internal/storage"
	"brushquest-server/pkg/jobs"
)

// StoryService orchestrates the content-generation pipeline and story editing.
type StoryService struct {
	worlds  repository.WorldRepository
	stories repository.StoryRepository
	text    ai.TextGenerator
	music   ai.MusicGenerator
	blobs   storage.BlobStore
	jobs    jobs.Manager
	cache   *ContentCache
	logger  *zap.Logger
}

func NewStoryService(
	worlds repository.WorldRepository,
	stories repository.StoryRepository,
	text ai.TextGenerator,
	music ai.MusicGenerator,
	blobs storage.BlobStore,
	jobManager jobs.Manager,
	cache *ContentCache,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		worlds:  worlds,
		stories: stories,
		text:    text,
		music:   music,
		blobs:   blobs,
		jobs:    jobManager,
		cache:   cache,
		logger:  logger,
	}
}

// GenerationResult is returned from a full pipeline run.
type GenerationResult struct {
	Story      *models.Story `json:"story"`
	Chapters   int           `json:"chapters"`
	MusicJobID uuid.UUID     `json:"musicJobId"`
}

// GenerateStory runs the whole pipeline for a pitch: bible, progressive
// chapter generation, reference/storyboard enrichment, then a background-music
// job whose id is returned so completion is queryable.
//
// The story is created in "generating" status and only promoted to "draft"
// when every chapter persisted. A mid-run failure leaves the partial story
// recoverable in admin; published content never serves it.
func (s *StoryService) GenerateStory(ctx context.Context, pitchID uuid.UUID) (*GenerationResult, error) {
	pitch, err := s.stories.GetPitch(ctx, pitchID)
	if err != nil {
		return nil, err
	}
	if pitch.IsUsed {
		return nil, fmt.Errorf("%w: pitch %s is already used", models.ErrConflict, pitchID)
	}
	if len(pitch.Outline) == 0 {
		return nil, fmt.Errorf("%w: pitch has no outline", models.ErrValidation)
	}
	world, err := s.worlds.GetByID(ctx, pitch.WorldID)
	if err != nil {
		return nil, err
	}

	bible, err := s.buildBible(ctx, world, pitch)
	if err != nil {
		return nil, err
	}

	story := &models.Story{
		ID:           uuid.New(),
		WorldID:      world.ID,
		Title:        pitch.Title,
		Description:  pitch.Description,
		ChapterCount: len(pitch.Outline),
		Status:       models.StoryStatusGenerating,
		Bible:        bible,
	}
	if err := s.stories.CreateStory(ctx, story); err != nil {
		return nil, err
	}
	if err := s.stories.CreateReferences(ctx, bibleReferences(story.ID, bible)); err != nil {
		return nil, err
	}

	chapters, err := s.generateChapters(ctx, world, story, pitch.Outline)
	if err != nil {
		s.logger.Error("story generation failed mid-run",
			zap.String("storyID", story.ID.String()),
			zap.Int("chaptersPersisted", len(chapters)), zap.Error(err))
		return nil, err
	}

	// Non-fatal enrichment.
	s.enrichStory(ctx, story.ID, chapters)

	if err := s.stories.SetStoryStatus(ctx, story.ID, models.StoryStatusDraft); err != nil {
		return nil, err
	}
	story.Status = models.StoryStatusDraft

	if err := s.stories.MarkPitchUsed(ctx, pitchID); err != nil {
		s.logger.Warn("failed to mark pitch used",
			zap.String("pitchID", pitchID.String()), zap.Error(err))
	}

	musicJobID, err := s.enqueueMusic(ctx, story, world)
	if err != nil {
		// The story is complete without music; the admin can retry later.
		s.logger.Warn("failed to enqueue background music",
			zap.String("storyID", story.ID.String()), zap.Error(err))
	}

	return &GenerationResult{Story: story, Chapters: len(chapters), MusicJobID: musicJobID}, nil
}

// enqueueMusic submits the background-music job and returns its id.
func (s *StoryService) enqueueMusic(ctx context.Context, story *models.Story, world *models.World) (uuid.UUID, error) {
	prompt := musicPrompt(story, world)
	storyID := story.ID
	return s.jobs.Submit(ctx, "story-music", func(jobCtx context.Context) (interface{}, error) {
		audio, err := s.music.Generate(jobCtx, prompt)
		if err != nil {
			return nil, err
		}
		url, err := s.blobs.Upload(jobCtx, storage.StoryMusicPath(storyID), "audio/mpeg", audio)
		if err != nil {
			return nil, err
		}
		if err := s.stories.SetStoryMusicURL(jobCtx, storyID, url); err != nil {
			return nil, err
		}
		return map[string]string{"backgroundMusicUrl": url}, nil
	})
}

// RegenerateMusic re-runs the music job for an existing story.
func (s *StoryService) RegenerateMusic(ctx context.Context, storyID uuid.UUID) (uuid.UUID, error) {
	story, err := s.stories.GetStory(ctx, storyID)
	if err != nil {
		return uuid.UUID{}, err
	}
	world, err := s.worlds.GetByID(ctx, story.WorldID)
	if err != nil {
		return uuid.UUID{}, err
	}
	return s.enqueueMusic(ctx, story, world)
}

func (s *StoryService) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	return s.stories.GetStory(ctx, id)
}

func (s *StoryService) ListByWorld(ctx context.Context, worldID uuid.UUID) ([]models.Story, error) {
	return s.stories.ListByWorld(ctx, worldID)
}

func (s *StoryService) UpdateStory(ctx context.Context, id uuid.UUID, upd models.StoryUpdate) (*models.Story, error) {
	story, err := s.stories.UpdateStory(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return story, nil
}

func (s *StoryService) DeleteStory(ctx context.Context, id uuid.UUID) error {
	if err := s.stories.DeleteStory(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// SetPublished toggles publication. Publishing promotes the story to the
// published status; unpublishing demotes it back to draft.
func (s *StoryService) SetPublished(ctx context.Context, id uuid.UUID, publish bool) (*models.Story, error) {
	story, err := s.stories.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	if publish && story.Status == models.StoryStatusGenerating {
		return nil, fmt.Errorf("%w: story is still generating", models.ErrConflict)
	}
	status := models.StoryStatusDraft
	if publish {
		status = models.StoryStatusPublished
	}
	updated, err := s.stories.UpdateStory(ctx, id, models.StoryUpdate{
		Status:      &status,
		IsPublished: &publish,
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return updated, nil
}

func (s *StoryService) ListChapters(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error) {
	return s.stories.ListChapters(ctx, storyID)
}

func (s *StoryService) GetChapter(ctx context.Context, storyID uuid.UUID, chapterNumber int) (*models.Chapter, error) {
	return s.stories.GetChapter(ctx, storyID, chapterNumber)
}

func (s *StoryService) UpdateChapter(ctx context.Context, id uuid.UUID, upd models.ChapterUpdate) (*models.Chapter, error) {
	ch, err := s.stories.UpdateChapter(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return ch, nil
}

func (s *StoryService) ListSegments(ctx context.Context, chapterID uuid.UUID) ([]models.Segment, error) {
	return s.stories.ListSegments(ctx, chapterID)
}

func (s *StoryService) GetSegment(ctx context.Context, id uuid.UUID) (*models.Segment, error) {
	return s.stories.GetSegment(ctx, id)
}

func (s *StoryService) UpdateSegment(ctx context.Context, id uuid.UUID, upd models.SegmentUpdate) (*models.Segment, error) {
	seg, err := s.stories.UpdateSegment(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return seg, nil
}

func (s *StoryService) ListReferences(ctx context.Context, storyID uuid.UUID) ([]models.StoryReference, error) {
	return s.stories.ListReferences(ctx, storyID)
}
