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

// CollectibleRepository manages stickers and accessories.
type CollectibleRepository interface {
	Create(ctx context.Context, c *models.Collectible) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Collectible, error)
	List(ctx context.Context) ([]models.Collectible, error)
	ListPublished(ctx context.Context) ([]models.Collectible, error)
	ListByWorld(ctx context.Context, worldID uuid.UUID) ([]models.Collectible, error)
	Update(ctx context.Context, id uuid.UUID, upd models.CollectibleUpdate) (*models.Collectible, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type collectibleRepository struct {
	db *pgxpool.Pool
}

func NewCollectibleRepository(db *pgxpool.Pool) CollectibleRepository {
	return &collectibleRepository{db: db}
}

func (r *collectibleRepository) Create(ctx context.Context, c *models.Collectible) error {
	query := `
        INSERT INTO collectibles (id, type, name, display_name, description, image_url,
                                  rarity, world_id, pet_id, is_published)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		c.ID, c.Type, c.Name, c.DisplayName, c.Description, c.ImageURL,
		c.Rarity, c.WorldID, c.PetID, c.IsPublished,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: collectible %q already exists", models.ErrConflict, c.Name)
		}
		return fmt.Errorf("%w: create collectible: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *collectibleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Collectible, error) {
	var c models.Collectible
	if err := pgxscan.Get(ctx, r.db, &c, `SELECT * FROM collectibles WHERE id = $1`, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: collectible %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get collectible: %v", models.ErrPersistence, err)
	}
	return &c, nil
}

func (r *collectibleRepository) List(ctx context.Context) ([]models.Collectible, error) {
	var items []models.Collectible
	if err := pgxscan.Select(ctx, r.db, &items, `SELECT * FROM collectibles ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("%w: list collectibles: %v", models.ErrPersistence, err)
	}
	return items, nil
}

func (r *collectibleRepository) ListPublished(ctx context.Context) ([]models.Collectible, error) {
	var items []models.Collectible
	query := `SELECT * FROM collectibles WHERE is_published ORDER BY created_at`
	if err := pgxscan.Select(ctx, r.db, &items, query); err != nil {
		return nil, fmt.Errorf("%w: list published collectibles: %v", models.ErrPersistence, err)
	}
	return items, nil
}

func (r *collectibleRepository) ListByWorld(ctx context.Context, worldID uuid.UUID) ([]models.Collectible, error) {
	var items []models.Collectible
	query := `SELECT * FROM collectibles WHERE world_id = $1 ORDER BY created_at`
	if err := pgxscan.Select(ctx, r.db, &items, query, worldID); err != nil {
		return nil, fmt.Errorf("%w: list collectibles for world: %v", models.ErrPersistence, err)
	}
	return items, nil
}

func (r *collectibleRepository) Update(ctx context.Context, id uuid.UUID, upd models.CollectibleUpdate) (*models.Collectible, error) {
	var c models.Collectible
	query := `
        UPDATE collectibles SET
            display_name = COALESCE($2, display_name),
            description  = COALESCE($3, description),
            image_url    = COALESCE($4, image_url),
            rarity       = COALESCE($5, rarity),
            is_published = COALESCE($6, is_published),
            updated_at   = now()
        WHERE id = $1
        RETURNING *`
	err := pgxscan.Get(ctx, r.db, &c, query, id,
		upd.DisplayName, upd.Description, upd.ImageURL, upd.Rarity, upd.IsPublished)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: collectible %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: update collectible: %v", models.ErrPersistence, err)
	}
	return &c, nil
}

func (r *collectibleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM collectibles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete collectible: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: collectible %s", models.ErrNotFound, id)
	}
	return nil
}
