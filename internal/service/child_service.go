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
)

const (
	childMinAge = 4
	childMaxAge = 10
)

// ChildService covers child-profile CRUD and name-audio regeneration.
type ChildService struct {
	children repository.ChildRepository
	synth    ai.SpeechSynthesizer
	blobs    storage.BlobStore
	logger   *zap.Logger
}

func NewChildService(children repository.ChildRepository, synth ai.SpeechSynthesizer, blobs storage.BlobStore, logger *zap.Logger) *ChildService {
	return &ChildService{children: children, synth: synth, blobs: blobs, logger: logger}
}

func (s *ChildService) Create(ctx context.Context, child *models.Child) error {
	if child.DisplayName == "" {
		return fmt.Errorf("%w: displayName is required", models.ErrValidation)
	}
	if child.Age < childMinAge || child.Age > childMaxAge {
		return fmt.Errorf("%w: age must be between %d and %d", models.ErrValidation, childMinAge, childMaxAge)
	}
	if child.ID == uuid.Nil {
		child.ID = uuid.New()
	}
	return s.children.Create(ctx, child)
}

func (s *ChildService) GetByID(ctx context.Context, id uuid.UUID) (*models.Child, error) {
	return s.children.GetByID(ctx, id)
}

func (s *ChildService) List(ctx context.Context) ([]models.Child, error) {
	return s.children.List(ctx)
}

func (s *ChildService) Update(ctx context.Context, id uuid.UUID, upd models.ChildUpdate) (*models.Child, error) {
	if upd.Age != nil && (*upd.Age < childMinAge || *upd.Age > childMaxAge) {
		return nil, fmt.Errorf("%w: age must be between %d and %d", models.ErrValidation, childMinAge, childMaxAge)
	}
	return s.children.Update(ctx, id, upd)
}

func (s *ChildService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.children.Delete(ctx, id)
}

// RegenerateAudio synthesizes and stores the child's spoken name and its
// possessive form, spliced into narration where [CHILD] pauses are rendered.
func (s *ChildService) RegenerateAudio(ctx context.Context, id uuid.UUID) (*models.Child, error) {
	child, err := s.children.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nameURL, err := s.synthesizeName(ctx, child.ID, child.DisplayName, false)
	if err != nil {
		return nil, err
	}
	possessiveURL, err := s.synthesizeName(ctx, child.ID, possessiveForm(child.DisplayName), true)
	if err != nil {
		return nil, err
	}

	return s.children.Update(ctx, id, models.ChildUpdate{
		NameAudioURL:       &nameURL,
		PossessiveAudioURL: &possessiveURL,
	})
}

func (s *ChildService) synthesizeName(ctx context.Context, childID uuid.UUID, text string, possessive bool) (string, error) {
	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	return s.blobs.Upload(ctx, storage.ChildNameAudioPath(childID, possessive), "audio/mpeg", audio)
}

// possessiveForm follows English convention: names ending in s take a bare
// apostrophe.
func possessiveForm(name string) string {
	if strings.HasSuffix(strings.ToLower(name), "s") {
		return name + "'"
	}
	return name + "'s"
}
