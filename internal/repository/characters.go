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

// CharacterRepository covers pose definitions and the sprites generated from
// them. Sprites are keyed by (pose, owner type, owner id); EnsureSprite makes
// the row exist before a generation run flips its status.
type CharacterRepository interface {
	CreatePose(ctx context.Context, pose *models.PoseDefinition) error
	ListPoses(ctx context.Context, characterType models.CharacterType) ([]models.PoseDefinition, error)
	GetPose(ctx context.Context, id uuid.UUID) (*models.PoseDefinition, error)
	DeletePose(ctx context.Context, id uuid.UUID) error

	EnsureSprite(ctx context.Context, poseID uuid.UUID, ownerType models.CharacterType, ownerID uuid.UUID) (*models.CharacterSprite, error)
	ListSprites(ctx context.Context, ownerType models.CharacterType, ownerID uuid.UUID) ([]models.CharacterSprite, error)
	SetSpriteStatus(ctx context.Context, id uuid.UUID, status models.SpriteStatus) error
	SetSpriteImage(ctx context.Context, id uuid.UUID, imageURL string) error
}

type characterRepository struct {
	db *pgxpool.Pool
}

func NewCharacterRepository(db *pgxpool.Pool) CharacterRepository {
	return &characterRepository{db: db}
}

func (r *characterRepository) CreatePose(ctx context.Context, p *models.PoseDefinition) error {
	query := `
        INSERT INTO pose_definitions (id, name, character_type, prompt_template, sort_order)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.CharacterType, p.PromptTemplate, p.SortOrder).
		Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pose %q for %s already exists", models.ErrConflict, p.Name, p.CharacterType)
		}
		return fmt.Errorf("%w: create pose: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *characterRepository) ListPoses(ctx context.Context, characterType models.CharacterType) ([]models.PoseDefinition, error) {
	var poses []models.PoseDefinition
	query := `SELECT * FROM pose_definitions WHERE character_type = $1 ORDER BY sort_order, name`
	if err := pgxscan.Select(ctx, r.db, &poses, query, characterType); err != nil {
		return nil, fmt.Errorf("%w: list poses: %v", models.ErrPersistence, err)
	}
	return poses, nil
}

func (r *characterRepository) GetPose(ctx context.Context, id uuid.UUID) (*models.PoseDefinition, error) {
	var p models.PoseDefinition
	if err := pgxscan.Get(ctx, r.db, &p, `SELECT * FROM pose_definitions WHERE id = $1`, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: pose %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get pose: %v", models.ErrPersistence, err)
	}
	return &p, nil
}

func (r *characterRepository) DeletePose(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pose_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete pose: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pose %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *characterRepository) EnsureSprite(ctx context.Context, poseID uuid.UUID, ownerType models.CharacterType, ownerID uuid.UUID) (*models.CharacterSprite, error) {
	var s models.CharacterSprite
	query := `
        INSERT INTO character_sprites (id, pose_id, owner_type, owner_id, status)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (pose_id, owner_type, owner_id) DO UPDATE SET updated_at = now()
        RETURNING *`
	err := pgxscan.Get(ctx, r.db, &s, query, uuid.New(), poseID, ownerType, ownerID, models.SpriteNotStarted)
	if err != nil {
		return nil, fmt.Errorf("%w: ensure sprite: %v", models.ErrPersistence, err)
	}
	return &s, nil
}

func (r *characterRepository) ListSprites(ctx context.Context, ownerType models.CharacterType, ownerID uuid.UUID) ([]models.CharacterSprite, error) {
	var sprites []models.CharacterSprite
	query := `
        SELECT s.* FROM character_sprites s
        JOIN pose_definitions p ON p.id = s.pose_id
        WHERE s.owner_type = $1 AND s.owner_id = $2
        ORDER BY p.sort_order, p.name`
	if err := pgxscan.Select(ctx, r.db, &sprites, query, ownerType, ownerID); err != nil {
		return nil, fmt.Errorf("%w: list sprites: %v", models.ErrPersistence, err)
	}
	return sprites, nil
}

func (r *characterRepository) SetSpriteStatus(ctx context.Context, id uuid.UUID, status models.SpriteStatus) error {
	query := `UPDATE character_sprites SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("%w: set sprite status: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sprite %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *characterRepository) SetSpriteImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	query := `
        UPDATE character_sprites SET image_url = $2, status = $3, updated_at = now()
        WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, imageURL, models.SpriteComplete)
	if err != nil {
		return fmt.Errorf("%w: set sprite image: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sprite %s", models.ErrNotFound, id)
	}
	return nil
}
