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

// CollectibleService covers collectible CRUD and AI sticker creation.
type CollectibleService struct {
	collectibles repository.CollectibleRepository
	worlds       repository.WorldRepository
	text         ai.TextGenerator
	image        ai.ImageGenerator
	blobs        storage.BlobStore
	jobs         jobs.Manager
	cache        *ContentCache
	logger       *zap.Logger
}

func NewCollectibleService(
	collectibles repository.CollectibleRepository,
	worlds repository.WorldRepository,
	text ai.TextGenerator,
	image ai.ImageGenerator,
	blobs storage.BlobStore,
	jobManager jobs.Manager,
	cache *ContentCache,
	logger *zap.Logger,
) *CollectibleService {
	return &CollectibleService{
		collectibles: collectibles,
		worlds:       worlds,
		text:         text,
		image:        image,
		blobs:        blobs,
		jobs:         jobManager,
		cache:        cache,
		logger:       logger,
	}
}

func (s *CollectibleService) Create(ctx context.Context, c *models.Collectible) error {
	if c.Name == "" || c.DisplayName == "" {
		return fmt.Errorf("%w: name and displayName are required", models.ErrValidation)
	}
	if c.Type != models.CollectibleSticker && c.Type != models.CollectibleAccessory {
		return fmt.Errorf("%w: type must be sticker or accessory", models.ErrValidation)
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := s.collectibles.Create(ctx, c); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *CollectibleService) GetByID(ctx context.Context, id uuid.UUID) (*models.Collectible, error) {
	return s.collectibles.GetByID(ctx, id)
}

func (s *CollectibleService) List(ctx context.Context) ([]models.Collectible, error) {
	return s.collectibles.List(ctx)
}

func (s *CollectibleService) Update(ctx context.Context, id uuid.UUID, upd models.CollectibleUpdate) (*models.Collectible, error) {
	c, err := s.collectibles.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return c, nil
}

func (s *CollectibleService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.collectibles.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

type collectiblePayload struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
}

// GeneratedCollectibles bundles the created rows with the image-job ids
// started for them.
type GeneratedCollectibles struct {
	Collectibles []models.Collectible `json:"collectibles"`
	ImageJobIDs  []uuid.UUID          `json:"imageJobIds"`
}

// Generate invents one or more collectibles, optionally themed for a world,
// and queues an image job per created row.
func (s *CollectibleService) Generate(ctx context.Context, collectibleType models.CollectibleType, worldID *uuid.UUID, count int) (*GeneratedCollectibles, error) {
	if count <= 0 {
		count = 1
	}
	if collectibleType != models.CollectibleSticker && collectibleType != models.CollectibleAccessory {
		return nil, fmt.Errorf("%w: type must be sticker or accessory", models.ErrValidation)
	}
	var world *models.World
	if worldID != nil {
		var err error
		world, err = s.worlds.GetByID(ctx, *worldID)
		if err != nil {
			return nil, err
		}
	}

	out, err := s.text.Generate(ctx, collectiblesPrompt(world, collectibleType, count))
	if err != nil {
		return nil, fmt.Errorf("generate collectibles: %w", err)
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return nil, fmt.Errorf("collectibles: %w", err)
	}
	var payloads []collectiblePayload
	if err := ai.DecodeStrict(raw, &payloads); err != nil {
		return nil, fmt.Errorf("collectibles: %w", err)
	}

	result := &GeneratedCollectibles{}
	for _, p := range payloads {
		if p.Name == "" || p.DisplayName == "" {
			continue
		}
		c := models.Collectible{
			ID:          uuid.New(),
			Type:        collectibleType,
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Description: p.Description,
			Rarity:      p.Rarity,
			WorldID:     worldID,
		}
		if err := s.collectibles.Create(ctx, &c); err != nil {
			return nil, err
		}
		result.Collectibles = append(result.Collectibles, c)

		jobID, err := s.enqueueImage(ctx, c)
		if err != nil {
			s.logger.Warn("failed to enqueue collectible image",
				zap.String("collectibleID", c.ID.String()), zap.Error(err))
			continue
		}
		result.ImageJobIDs = append(result.ImageJobIDs, jobID)
	}
	if len(result.Collectibles) == 0 {
		return nil, fmt.Errorf("%w: no usable collectibles in output", models.ErrMalformedOutput)
	}
	s.cache.Invalidate(ctx)
	return result, nil
}

func (s *CollectibleService) enqueueImage(ctx context.Context, c models.Collectible) (uuid.UUID, error) {
	prompt := fmt.Sprintf("A single %s collectible named %q: %s. Centered on a plain background.",
		c.Type, c.DisplayName, c.Description)
	id := c.ID
	return s.jobs.Submit(ctx, "collectible-image", func(jobCtx context.Context) (interface{}, error) {
		img, err := s.image.Generate(jobCtx, prompt, nil)
		if err != nil {
			return nil, err
		}
		url, err := s.blobs.Upload(jobCtx, storage.CollectibleImagePath(id), img.MIMEType, img.Data)
		if err != nil {
			return nil, err
		}
		if _, err := s.collectibles.Update(jobCtx, id, models.CollectibleUpdate{ImageURL: &url}); err != nil {
			return nil, err
		}
		s.cache.Invalidate(jobCtx)
		return map[string]string{"imageUrl": url}, nil
	})
}
