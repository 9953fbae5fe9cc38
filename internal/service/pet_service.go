package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"brushquest-server/internal/ai"
	"brushquest-server/internal/models"
	"brushquest-server/internal/repository"
)

// PetService covers pet CRUD, AI suggestion generation and suggestion
// promotion.
type PetService struct {
	pets   repository.PetRepository
	text   ai.TextGenerator
	cache  *ContentCache
	logger *zap.Logger
}

func NewPetService(pets repository.PetRepository, text ai.TextGenerator, cache *ContentCache, logger *zap.Logger) *PetService {
	return &PetService{pets: pets, text: text, cache: cache, logger: logger}
}

func (s *PetService) Create(ctx context.Context, pet *models.Pet) error {
	if pet.Name == "" || pet.DisplayName == "" {
		return fmt.Errorf("%w: name and displayName are required", models.ErrValidation)
	}
	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	if err := s.pets.Create(ctx, pet); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *PetService) GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	return s.pets.GetByID(ctx, id)
}

func (s *PetService) List(ctx context.Context) ([]models.Pet, error) {
	return s.pets.List(ctx)
}

func (s *PetService) Update(ctx context.Context, id uuid.UUID, upd models.PetUpdate) (*models.Pet, error) {
	pet, err := s.pets.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return pet, nil
}

func (s *PetService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.pets.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// SaveAudio stores recorded name-audio URLs on a pet.
func (s *PetService) SaveAudio(ctx context.Context, id uuid.UUID, nameURL, possessiveURL string) (*models.Pet, error) {
	upd := models.PetUpdate{}
	if nameURL != "" {
		upd.NameAudioURL = &nameURL
	}
	if possessiveURL != "" {
		upd.PossessiveAudioURL = &possessiveURL
	}
	return s.pets.Update(ctx, id, upd)
}

type petSuggestionPayload struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Personality string `json:"personality"`
	UnlockCost  int    `json:"unlockCost"`
}

// GenerateSuggestions invents pet candidates. They stay unapproved until an
// admin promotes them.
func (s *PetService) GenerateSuggestions(ctx context.Context, count int) ([]models.PetSuggestion, error) {
	if count <= 0 {
		count = 3
	}
	out, err := s.text.Generate(ctx, petSuggestionsPrompt(count))
	if err != nil {
		return nil, fmt.Errorf("generate pet suggestions: %w", err)
	}
	raw, err := ai.ExtractJSON(out)
	if err != nil {
		return nil, fmt.Errorf("pet suggestions: %w", err)
	}
	var payloads []petSuggestionPayload
	if err := ai.DecodeStrict(raw, &payloads); err != nil {
		return nil, fmt.Errorf("pet suggestions: %w", err)
	}

	suggestions := make([]models.PetSuggestion, 0, len(payloads))
	for _, p := range payloads {
		if p.Name == "" || p.DisplayName == "" {
			continue
		}
		suggestion := models.PetSuggestion{
			ID:          uuid.New(),
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Description: p.Description,
			Personality: p.Personality,
			UnlockCost:  p.UnlockCost,
		}
		if err := s.pets.CreateSuggestion(ctx, &suggestion); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, suggestion)
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w: no usable pet suggestions in output", models.ErrMalformedOutput)
	}
	return suggestions, nil
}

func (s *PetService) ListSuggestions(ctx context.Context) ([]models.PetSuggestion, error) {
	return s.pets.ListSuggestions(ctx)
}

// Approve promotes a suggestion into a real pet. The repository claim is
// conditional on the suggestion being unapproved, so two concurrent approvals
// create exactly one pet.
func (s *PetService) Approve(ctx context.Context, suggestionID uuid.UUID) (*models.Pet, error) {
	suggestion, err := s.pets.ClaimSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	pet := &models.Pet{
		ID:          uuid.New(),
		Name:        suggestion.Name,
		DisplayName: suggestion.DisplayName,
		Description: suggestion.Description,
		Personality: suggestion.Personality,
		UnlockCost:  suggestion.UnlockCost,
		AvatarURL:   suggestion.AvatarURL,
	}
	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return pet, nil
}

// Reject discards a suggestion.
func (s *PetService) Reject(ctx context.Context, suggestionID uuid.UUID) error {
	return s.pets.DeleteSuggestion(ctx, suggestionID)
}
