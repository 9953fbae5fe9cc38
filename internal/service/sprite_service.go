package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"brushquest-server/internal/ai"
	"brushquest-server/internal/models"
	"brushquest-server/internal/repository"
	"brushquest-server/internal/storage"
	"brushquest-server/pkg/jobs"
)

// SpriteService manages pose templates and generates sprite images from them.
type SpriteService struct {
	characters repository.CharacterRepository
	children   repository.ChildRepository
	pets       repository.PetRepository
	image      ai.ImageGenerator
	blobs      storage.BlobStore
	jobs       jobs.Manager
	logger     *zap.Logger
}

func NewSpriteService(
	characters repository.CharacterRepository,
	children repository.ChildRepository,
	pets repository.PetRepository,
	image ai.ImageGenerator,
	blobs storage.BlobStore,
	jobManager jobs.Manager,
	logger *zap.Logger,
) *SpriteService {
	return &SpriteService{
		characters: characters,
		children:   children,
		pets:       pets,
		image:      image,
		blobs:      blobs,
		jobs:       jobManager,
		logger:     logger,
	}
}

func (s *SpriteService) CreatePose(ctx context.Context, pose *models.PoseDefinition) error {
	if pose.Name == "" || pose.PromptTemplate == "" {
		return fmt.Errorf("%w: name and promptTemplate are required", models.ErrValidation)
	}
	if pose.CharacterType != models.CharacterChild && pose.CharacterType != models.CharacterPet {
		return fmt.Errorf("%w: characterType must be child or pet", models.ErrValidation)
	}
	if pose.ID == uuid.Nil {
		pose.ID = uuid.New()
	}
	return s.characters.CreatePose(ctx, pose)
}

func (s *SpriteService) ListPoses(ctx context.Context, characterType models.CharacterType) ([]models.PoseDefinition, error) {
	return s.characters.ListPoses(ctx, characterType)
}

func (s *SpriteService) DeletePose(ctx context.Context, id uuid.UUID) error {
	return s.characters.DeletePose(ctx, id)
}

func (s *SpriteService) ListSprites(ctx context.Context, ownerType models.CharacterType, ownerID uuid.UUID) ([]models.CharacterSprite, error) {
	return s.characters.ListSprites(ctx, ownerType, ownerID)
}

// Generate queues sprite generation for one pose-owner pair and returns the
// job id.
func (s *SpriteService) Generate(ctx context.Context, poseID uuid.UUID, ownerType models.CharacterType, ownerID uuid.UUID) (uuid.UUID, error) {
	pose, err := s.characters.GetPose(ctx, poseID)
	if err != nil {
		return uuid.UUID{}, err
	}
	if pose.CharacterType != ownerType {
		return uuid.UUID{}, fmt.Errorf("%w: pose %q is for %s owners", models.ErrValidation, pose.Name, pose.CharacterType)
	}
	return s.jobs.Submit(ctx, "sprite", func(jobCtx context.Context) (interface{}, error) {
		return s.generateOne(jobCtx, pose, ownerType, ownerID)
	})
}

// GenerateAll queues one job that walks every pose for the owner's type in
// order, generating sprites sequentially. Each pose's status is written
// before and after its generation, so progress is visible mid-run and a
// failure marks only the affected pose.
func (s *SpriteService) GenerateAll(ctx context.Context, ownerType models.CharacterType, ownerID uuid.UUID) (uuid.UUID, error) {
	poses, err := s.characters.ListPoses(ctx, ownerType)
	if err != nil {
		return uuid.UUID{}, err
	}
	if len(poses) == 0 {
		return uuid.UUID{}, fmt.Errorf("%w: no poses defined for %s", models.ErrValidation, ownerType)
	}
	return s.jobs.Submit(ctx, "sprite-batch", func(jobCtx context.Context) (interface{}, error) {
		completed := 0
		var failed []string
		for i := range poses {
			if jobCtx.Err() != nil {
				return nil, jobCtx.Err()
			}
			if _, err := s.generateOne(jobCtx, &poses[i], ownerType, ownerID); err != nil {
				s.logger.Warn("sprite generation failed within batch",
					zap.String("pose", poses[i].Name),
					zap.String("ownerID", ownerID.String()), zap.Error(err))
				failed = append(failed, poses[i].Name)
				continue
			}
			completed++
		}
		return map[string]interface{}{"completed": completed, "failed": failed}, nil
	})
}

func (s *SpriteService) generateOne(ctx context.Context, pose *models.PoseDefinition, ownerType models.CharacterType, ownerID uuid.UUID) (*models.CharacterSprite, error) {
	sprite, err := s.characters.EnsureSprite(ctx, pose.ID, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.characters.SetSpriteStatus(ctx, sprite.ID, models.SpriteGenerating); err != nil {
		return nil, err
	}

	prompt, refs, err := s.spritePrompt(ctx, pose, ownerType, ownerID)
	if err != nil {
		_ = s.characters.SetSpriteStatus(ctx, sprite.ID, models.SpriteFailed)
		return nil, err
	}

	img, err := s.image.Generate(ctx, prompt, refs)
	if err != nil {
		_ = s.characters.SetSpriteStatus(ctx, sprite.ID, models.SpriteFailed)
		return nil, err
	}
	url, err := s.blobs.Upload(ctx, storage.SpriteImagePath(sprite.ID), img.MIMEType, img.Data)
	if err != nil {
		_ = s.characters.SetSpriteStatus(ctx, sprite.ID, models.SpriteFailed)
		return nil, err
	}
	if err := s.characters.SetSpriteImage(ctx, sprite.ID, url); err != nil {
		return nil, err
	}
	sprite.Status = models.SpriteComplete
	sprite.ImageURL = &url
	return sprite, nil
}

// spritePrompt fills the pose template with the owner's name and attaches the
// owner's avatar as a reference so every pose stays on-model.
func (s *SpriteService) spritePrompt(ctx context.Context, pose *models.PoseDefinition, ownerType models.CharacterType, ownerID uuid.UUID) (string, []ai.ReferenceImage, error) {
	var name string
	var refs []ai.ReferenceImage
	switch ownerType {
	case models.CharacterChild:
		child, err := s.children.GetByID(ctx, ownerID)
		if err != nil {
			return "", nil, err
		}
		name = child.DisplayName
	case models.CharacterPet:
		pet, err := s.pets.GetByID(ctx, ownerID)
		if err != nil {
			return "", nil, err
		}
		name = pet.DisplayName
		if pet.AvatarURL != nil && *pet.AvatarURL != "" {
			refs = append(refs, ai.ReferenceImage{
				URL:     *pet.AvatarURL,
				Purpose: fmt.Sprintf("the exact appearance of %s", pet.DisplayName),
			})
		}
	default:
		return "", nil, fmt.Errorf("%w: unknown owner type %q", models.ErrValidation, ownerType)
	}
	return strings.ReplaceAll(pose.PromptTemplate, "{name}", name), refs, nil
}
