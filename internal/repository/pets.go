package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brushquest-server/internal/models"
)

// PetRepository is the write/read surface for pets and pet suggestions.
type PetRepository interface {
	Create(ctx context.Context, pet *models.Pet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	List(ctx context.Context) ([]models.Pet, error)
	Update(ctx context.Context, id uuid.UUID, upd models.PetUpdate) (*models.Pet, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateSuggestion(ctx context.Context, s *models.PetSuggestion) error
	ListSuggestions(ctx context.Context) ([]models.PetSuggestion, error)
	// ClaimSuggestion flips is_approved only when it is still false, so two
	// concurrent approvals cannot both promote the same suggestion.
	ClaimSuggestion(ctx context.Context, id uuid.UUID) (*models.PetSuggestion, error)
	DeleteSuggestion(ctx context.Context, id uuid.UUID) error
}

type petRepository struct {
	db *pgxpool.Pool
}

func NewPetRepository(db *pgxpool.Pool) PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) Create(ctx context.Context, p *models.Pet) error {
	query := `
        INSERT INTO pets (id, name, display_name, description, personality, unlock_cost,
                          is_starter, avatar_url, image_url, name_audio_url, possessive_audio_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.DisplayName, p.Description, p.Personality, p.UnlockCost,
		p.IsStarter, p.AvatarURL, p.ImageURL, p.NameAudioURL, p.PossessiveAudioURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pet name %q already exists", models.ErrConflict, p.Name)
		}
		return fmt.Errorf("%w: create pet: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *petRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var p models.Pet
	if err := pgxscan.Get(ctx, r.db, &p, `SELECT * FROM pets WHERE id = $1`, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: pet %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get pet: %v", models.ErrPersistence, err)
	}
	return &p, nil
}

func (r *petRepository) List(ctx context.Context) ([]models.Pet, error) {
	var pets []models.Pet
	if err := pgxscan.Select(ctx, r.db, &pets, `SELECT * FROM pets ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("%w: list pets: %v", models.ErrPersistence, err)
	}
	return pets, nil
}

func (r *petRepository) Update(ctx context.Context, id uuid.UUID, upd models.PetUpdate) (*models.Pet, error) {
	var p models.Pet
	query := `
        UPDATE pets SET
            display_name         = COALESCE($2, display_name),
            description          = COALESCE($3, description),
            personality          = COALESCE($4, personality),
            unlock_cost          = COALESCE($5, unlock_cost),
            is_starter           = COALESCE($6, is_starter),
            avatar_url           = COALESCE($7, avatar_url),
            image_url            = COALESCE($8, image_url),
            name_audio_url       = COALESCE($9, name_audio_url),
            possessive_audio_url = COALESCE($10, possessive_audio_url),
            updated_at           = now()
        WHERE id = $1
        RETURNING *`
	err := pgxscan.Get(ctx, r.db, &p, query, id,
		upd.DisplayName, upd.Description, upd.Personality, upd.UnlockCost, upd.IsStarter,
		upd.AvatarURL, upd.ImageURL, upd.NameAudioURL, upd.PossessiveAudioURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: pet %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: update pet: %v", models.ErrPersistence, err)
	}
	return &p, nil
}

func (r *petRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete pet: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pet %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *petRepository) CreateSuggestion(ctx context.Context, s *models.PetSuggestion) error {
	query := `
        INSERT INTO pet_suggestions (id, name, display_name, description, personality, unlock_cost, avatar_url, is_approved)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		s.ID, s.Name, s.DisplayName, s.Description, s.Personality, s.UnlockCost, s.AvatarURL, s.IsApproved,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: create pet suggestion: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *petRepository) ListSuggestions(ctx context.Context) ([]models.PetSuggestion, error) {
	var suggestions []models.PetSuggestion
	query := `SELECT * FROM pet_suggestions WHERE NOT is_approved ORDER BY created_at DESC`
	if err := pgxscan.Select(ctx, r.db, &suggestions, query); err != nil {
		return nil, fmt.Errorf("%w: list pet suggestions: %v", models.ErrPersistence, err)
	}
	return suggestions, nil
}

func (r *petRepository) ClaimSuggestion(ctx context.Context, id uuid.UUID) (*models.PetSuggestion, error) {
	var s models.PetSuggestion
	query := `
        UPDATE pet_suggestions SET is_approved = TRUE
        WHERE id = $1 AND NOT is_approved
        RETURNING *`
	if err := pgxscan.Get(ctx, r.db, &s, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: pet suggestion %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: claim pet suggestion: %v", models.ErrPersistence, err)
	}
	return &s, nil
}

func (r *petRepository) DeleteSuggestion(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pet_suggestions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete pet suggestion: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pet suggestion %s", models.ErrNotFound, id)
	}
	return nil
}
