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

// WorldRepository is the write/read surface for worlds.
type WorldRepository interface {
	Create(ctx context.Context, world *models.World) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.World, error)
	List(ctx context.Context) ([]models.WorldSummary, error)
	ListPublished(ctx context.Context) ([]models.World, error)
	Update(ctx context.Context, id uuid.UUID, upd models.WorldUpdate) (*models.World, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type worldRepository struct {
	db *pgxpool.Pool
}

func NewWorldRepository(db *pgxpool.Pool) WorldRepository {
	return &worldRepository{db: db}
}

func (r *worldRepository) Create(ctx context.Context, w *models.World) error {
	query := `
        INSERT INTO worlds (id, name, display_name, description, theme, unlock_cost,
                            is_starter, is_published, background_image_url, background_music_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		w.ID, w.Name, w.DisplayName, w.Description, w.Theme, w.UnlockCost,
		w.IsStarter, w.IsPublished, w.BackgroundImageURL, w.BackgroundMusicURL,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: world name %q already exists", models.ErrConflict, w.Name)
		}
		return fmt.Errorf("%w: create world: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *worldRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.World, error) {
	var w models.World
	err := pgxscan.Get(ctx, r.db, &w, `SELECT * FROM worlds WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: world %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get world: %v", models.ErrPersistence, err)
	}
	return &w, nil
}

func (r *worldRepository) List(ctx context.Context) ([]models.WorldSummary, error) {
	var worlds []models.WorldSummary
	query := `
        SELECT w.*, COUNT(s.id) AS story_count
        FROM worlds w
        LEFT JOIN stories s ON s.world_id = w.id
        GROUP BY w.id
        ORDER BY w.created_at`
	if err := pgxscan.Select(ctx, r.db, &worlds, query); err != nil {
		return nil, fmt.Errorf("%w: list worlds: %v", models.ErrPersistence, err)
	}
	return worlds, nil
}

func (r *worldRepository) ListPublished(ctx context.Context) ([]models.World, error) {
	var worlds []models.World
	query := `SELECT * FROM worlds WHERE is_published ORDER BY created_at`
	if err := pgxscan.Select(ctx, r.db, &worlds, query); err != nil {
		return nil, fmt.Errorf("%w: list published worlds: %v", models.ErrPersistence, err)
	}
	return worlds, nil
}

// Update applies COALESCE semantics: omitted fields keep their persisted
// values.
func (r *worldRepository) Update(ctx context.Context, id uuid.UUID, upd models.WorldUpdate) (*models.World, error) {
	var w models.World
	query := `
        UPDATE worlds SET
            display_name         = COALESCE($2, display_name),
            description          = COALESCE($3, description),
            theme                = COALESCE($4, theme),
            unlock_cost          = COALESCE($5, unlock_cost),
            is_starter           = COALESCE($6, is_starter),
            is_published         = COALESCE($7, is_published),
            background_image_url = COALESCE($8, background_image_url),
            background_music_url = COALESCE($9, background_music_url),
            updated_at           = now()
        WHERE id = $1
        RETURNING *`
	err := pgxscan.Get(ctx, r.db, &w, query, id,
		upd.DisplayName, upd.Description, upd.Theme, upd.UnlockCost,
		upd.IsStarter, upd.IsPublished, upd.BackgroundImageURL, upd.BackgroundMusicURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: world %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: update world: %v", models.ErrPersistence, err)
	}
	return &w, nil
}

func (r *worldRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM worlds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete world: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: world %s", models.ErrNotFound, id)
	}
	return nil
}
