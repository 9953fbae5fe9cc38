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
)

// MediaService is the thin proxy surface over the provider clients: direct
// TTS, ad-hoc image generation, avatar creation and segment narration audio.
type MediaService struct {
	stories repository.StoryRepository
	pets    repository.PetRepository
	synth   ai.SpeechSynthesizer
	image   ai.ImageGenerator
	blobs   storage.BlobStore
	logger  *zap.Logger
}

func NewMediaService(
	stories repository.StoryRepository,
	pets repository.PetRepository,
	synth ai.SpeechSynthesizer,
	image ai.ImageGenerator,
	blobs storage.BlobStore,
	logger *zap.Logger,
) *MediaService {
	return &MediaService{
		stories: stories,
		pets:    pets,
		synth:   synth,
		image:   image,
		blobs:   blobs,
		logger:  logger,
	}
}

// Synthesize proxies a TTS call and returns the raw MP3 bytes.
func (s *MediaService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", models.ErrValidation)
	}
	return s.synth.Synthesize(ctx, text)
}

// GenerateImage proxies an ad-hoc image-generation call, persists the result
// under the given path and returns its public URL.
func (s *MediaService) GenerateImage(ctx context.Context, prompt, path string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt is required", models.ErrValidation)
	}
	if path == "" {
		path = storage.AvatarImagePath(uuid.New())
	}
	img, err := s.image.Generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return s.blobs.Upload(ctx, path, img.MIMEType, img.Data)
}

// GenerateAvatar creates a portrait for a pet from its description and stores
// it as the pet's avatar.
func (s *MediaService) GenerateAvatar(ctx context.Context, petID uuid.UUID) (*models.Pet, error) {
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Friendly portrait of %s: %s. Personality: %s. Head and shoulders, facing the viewer.",
		pet.DisplayName, pet.Description, pet.Personality)

	img, err := s.image.Generate(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	url, err := s.blobs.Upload(ctx, storage.AvatarImagePath(pet.ID), img.MIMEType, img.Data)
	if err != nil {
		return nil, err
	}
	return s.pets.Update(ctx, petID, models.PetUpdate{AvatarURL: &url})
}

// GenerateNameAudio synthesizes an arbitrary name (for pets or previews) and
// returns the stored URL.
func (s *MediaService) GenerateNameAudio(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	audio, err := s.synth.Synthesize(ctx, name)
	if err != nil {
		return "", err
	}
	return s.blobs.Upload(ctx, storage.ChildNameAudioPath(uuid.New(), false), "audio/mpeg", audio)
}

// GenerateSegmentAudio synthesizes a segment's narration, with [CHILD]/[PET]
// rendered as pauses, and returns the stored URL.
func (s *MediaService) GenerateSegmentAudio(ctx context.Context, segmentID uuid.UUID) (string, error) {
	segment, err := s.stories.GetSegment(ctx, segmentID)
	if err != nil {
		return "", err
	}
	audio, err := s.synth.Synthesize(ctx, segment.Text)
	if err != nil {
		return "", err
	}
	return s.blobs.Upload(ctx, storage.SegmentAudioPath(segment.ID), "audio/mpeg", audio)
}

// GenerateSegmentImage illustrates one segment from its stored image prompt,
// attaching reference images for the entities tagged on it.
func (s *MediaService) GenerateSegmentImage(ctx context.Context, segmentID uuid.UUID) (*models.Segment, error) {
	segment, err := s.stories.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if segment.ImagePrompt == "" {
		return nil, fmt.Errorf("%w: segment has no image prompt", models.ErrValidation)
	}
	chapter, err := s.chapterOf(ctx, segment)
	if err != nil {
		return nil, err
	}

	var refs []ai.ReferenceImage
	if len(segment.ReferenceIDs) > 0 {
		storyRefs, err := s.stories.ListReferences(ctx, chapter.StoryID)
		if err != nil {
			return nil, err
		}
		tagged := make(map[uuid.UUID]bool, len(segment.ReferenceIDs))
		for _, id := range segment.ReferenceIDs {
			tagged[id] = true
		}
		for _, ref := range storyRefs {
			if tagged[ref.ID] && ref.ImageURL != nil && *ref.ImageURL != "" {
				refs = append(refs, ai.ReferenceImage{
					URL:     *ref.ImageURL,
					Purpose: fmt.Sprintf("the exact appearance of %s", ref.Name),
				})
			}
		}
	}

	img, err := s.image.Generate(ctx, segment.ImagePrompt, refs)
	if err != nil {
		return nil, err
	}

	path := storage.SegmentImagePath(chapter.StoryID, chapter.ChapterNumber, segment.Position)
	url, err := s.blobs.Upload(ctx, path, img.MIMEType, img.Data)
	if err != nil {
		return nil, err
	}
	if err := s.stories.SetSegmentImageURL(ctx, segment.ID, url); err != nil {
		return nil, err
	}
	segment.ImageURL = &url
	return segment, nil
}

func (s *MediaService) chapterOf(ctx context.Context, segment *models.Segment) (*models.Chapter, error) {
	return s.stories.GetChapterByID(ctx, segment.ChapterID)
}
