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

// ChildRepository is the write/read surface for child profiles.
type ChildRepository interface {
	Create(ctx context.Context, child *models.Child) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Child, error)
	List(ctx context.Context) ([]models.Child, error)
	Update(ctx context.Context, id uuid.UUID, upd models.ChildUpdate) (*models.Child, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type childRepository struct {
	db *pgxpool.Pool
}

func NewChildRepository(db *pgxpool.Pool) ChildRepository {
	return &childRepository{db: db}
}

func (r *childRepository) Create(ctx context.Context, c *models.Child) error {
	if c.UnlockedWorlds == nil {
		c.UnlockedWorlds = []uuid.UUID{}
	}
	if c.UnlockedPets == nil {
		c.UnlockedPets = []uuid.UUID{}
	}
	if c.CompletedStories == nil {
		c.CompletedStories = []uuid.UUID{}
	}
	if c.Stickers == nil {
		c.Stickers = []uuid.UUID{}
	}
	if c.Accessories == nil {
		c.Accessories = []uuid.UUID{}
	}
	query := `
        INSERT INTO children (id, display_name, age, character_id, pet_id, brush_id, world_id,
                              points, session_count, streak_days, unlocked_worlds, unlocked_pets,
                              current_story_id, current_chapter, completed_stories,
                              name_audio_url, possessive_audio_url, stickers, accessories)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		c.ID, c.DisplayName, c.Age, c.CharacterID, c.PetID, c.BrushID, c.WorldID,
		c.Points, c.SessionCount, c.StreakDays, c.UnlockedWorlds, c.UnlockedPets,
		c.CurrentStoryID, c.CurrentChapter, c.CompletedStories,
		c.NameAudioURL, c.PossessiveAudioURL, c.Stickers, c.Accessories,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: create child: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *childRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Child, error) {
	var c models.Child
	if err := pgxscan.Get(ctx, r.db, &c, `SELECT * FROM children WHERE id = $1`, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: child %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get child: %v", models.ErrPersistence, err)
	}
	return &c, nil
}

func (r *childRepository) List(ctx context.Context) ([]models.Child, error) {
	var children []models.Child
	if err := pgxscan.Select(ctx, r.db, &children, `SELECT * FROM children ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("%w: list children: %v", models.ErrPersistence, err)
	}
	return children, nil
}

// Update applies COALESCE semantics for most columns. The nullable foreign
// keys pet_id and world_id are special-cased: an explicit null in the request
// clears them (a child may deselect their pet or world).
func (r *childRepository) Update(ctx context.Context, id uuid.UUID, upd models.ChildUpdate) (*models.Child, error) {
	var c models.Child
	query := `
        UPDATE children SET
            display_name         = COALESCE($2, display_name),
            age                  = COALESCE($3, age),
            character_id         = COALESCE($4, character_id),
            pet_id               = CASE WHEN $20 THEN NULL ELSE COALESCE($5, pet_id) END,
            brush_id             = COALESCE($6, brush_id),
            world_id             = CASE WHEN $21 THEN NULL ELSE COALESCE($7, world_id) END,
            points               = COALESCE($8, points),
            session_count        = COALESCE($9, session_count),
            streak_days          = COALESCE($10, streak_days),
            unlocked_worlds      = COALESCE($11, unlocked_worlds),
            unlocked_pets        = COALESCE($12, unlocked_pets),
            current_story_id     = COALESCE($13, current_story_id),
            current_chapter      = COALESCE($14, current_chapter),
            completed_stories    = COALESCE($15, completed_stories),
            name_audio_url       = COALESCE($16, name_audio_url),
            possessive_audio_url = COALESCE($17, possessive_audio_url),
            stickers             = COALESCE($18, stickers),
            accessories          = COALESCE($19, accessories),
            updated_at           = now()
        WHERE id = $1
        RETURNING *`
	err := pgxscan.Get(ctx, r.db, &c, query, id,
		upd.DisplayName, upd.Age, upd.CharacterID, upd.PetID, upd.BrushID, upd.WorldID,
		upd.Points, upd.SessionCount, upd.StreakDays, upd.UnlockedWorlds, upd.UnlockedPets,
		upd.CurrentStoryID, upd.CurrentChapter, upd.CompletedStories,
		upd.NameAudioURL, upd.PossessiveAudioURL, upd.Stickers, upd.Accessories,
		upd.ClearPet, upd.ClearWorld)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: child %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: update child: %v", models.ErrPersistence, err)
	}
	return &c, nil
}

func (r *childRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM children WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete child: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: child %s", models.ErrNotFound, id)
	}
	return nil
}
