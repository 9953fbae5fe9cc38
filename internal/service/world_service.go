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

// WorldService covers world CRUD plus AI world creation and background image
// regeneration.
type WorldService struct {
	worlds repository.WorldRepository
	text   ai.TextGenerator
	image  ai.ImageGenerator
	blobs  storage.BlobStore
	jobs   jobs.Manager
	cache  *ContentCache
	logger *zap.Logger
}

func NewWorldService(
	worlds repository.WorldRepository,
	text ai.TextGenerator,
	image ai.ImageGenerator,
	blobs storage.BlobStore,
	jobManager jobs.Manager,
	cache *ContentCache,
	logger *zap.Logger,
) *WorldService {
	return &WorldService{
		worlds: worlds,
		text:   text,
		image:  image,
		blobs:  blobs,
		jobs:   jobManager,
		cache:  cache,
		logger: logger,
	}
}

func (s *WorldService) Create(ctx context.Context, world *models.World) error {
	if world.Name == "" || world.DisplayName == "" {
		return fmt.Errorf("%w: name and displayName are required", models.ErrValidation)
	}
	if world.ID == uuid.Nil {
		world.ID = uuid.New()
	}
	if err := s.worlds.Create(ctx, world); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

type worldPayload struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
}

// GeneratedWorld bundles the created world with the id of the background-image
// job started for it.
type GeneratedWorld struct {
	World      *models.World `json:"world"`
	ImageJobID uuid.UUID     `json:"imageJobId"`
}

// Generate invents a new world with the LLM and queues its background image.
func (s *WorldService) Generate(ctx context.Context, theme string) (*GeneratedWorld, error) {
	out, err := s.text.Generate(ctx, worldPrompt(theme))
	if err != nil {
		return nil, fmt.Errorf("generate world: %w", err)
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	var payload worldPayload
	if err := ai.DecodeStrict(raw, &payload); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	if payload.Name == "" || payload.DisplayName == "" {
		return nil, fmt.Errorf("%w: generated world is missing a name", models.ErrMalformedOutput)
	}

	world := &models.World{
		ID:          uuid.New(),
		Name:        payload.Name,
		DisplayName: payload.DisplayName,
		Description: payload.Description,
		Theme:       payload.Theme,
	}
	if err := s.worlds.Create(ctx, world); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	jobID, err := s.RegenerateImage(ctx, world.ID)
	if err != nil {
		s.logger.Warn("failed to enqueue world image",
			zap.String("worldID", world.ID.String()), zap.Error(err))
	}
	return &GeneratedWorld{World: world, ImageJobID: jobID}, nil
}

// RegenerateImage queues a background-image job for a world and returns the
// job id.
func (s *WorldService) RegenerateImage(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	world, err := s.worlds.GetByID(ctx, id)
	if err != nil {
		return uuid.UUID{}, err
	}
	prompt := fmt.Sprintf("Background illustration of the world %q: %s. Wide establishing shot, no characters.",
		world.DisplayName, world.Description)

	return s.jobs.Submit(ctx, "world-image", func(jobCtx context.Context) (interface{}, error) {
		img, err := s.image.Generate(jobCtx, prompt, nil)
		if err != nil {
			return nil, err
		}
		url, err := s.blobs.Upload(jobCtx, storage.WorldImagePath(world.ID), img.MIMEType, img.Data)
		if err != nil {
			return nil, err
		}
		if _, err := s.worlds.Update(jobCtx, world.ID, models.WorldUpdate{BackgroundImageURL: &url}); err != nil {
			return nil, err
		}
		s.cache.Invalidate(jobCtx)
		return map[string]string{"backgroundImageUrl": url}, nil
	})
}

func (s *WorldService) GetByID(ctx context.Context, id uuid.UUID) (*models.World, error) {
	return s.worlds.GetByID(ctx, id)
}

func (s *WorldService) List(ctx context.Context) ([]models.WorldSummary, error) {
	return s.worlds.List(ctx)
}

func (s *WorldService) Update(ctx context.Context, id uuid.UUID, upd models.WorldUpdate) (*models.World, error) {
	world, err := s.worlds.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return world, nil
}

func (s *WorldService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.worlds.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}
