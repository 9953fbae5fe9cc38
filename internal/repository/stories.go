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

// StoryRepository is the write/read surface for stories, pitches, chapters,
// segments and references.
type StoryRepository interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListByWorld(ctx context.Context, worldID uuid.UUID) ([]models.Story, error)
	ListPublishedByWorld(ctx context.Context, worldID uuid.UUID) ([]models.Story, error)
	UpdateStory(ctx context.Context, id uuid.UUID, upd models.StoryUpdate) (*models.Story, error)
	SetStoryStatus(ctx context.Context, id uuid.UUID, status models.StoryStatus) error
	SetStoryMusicURL(ctx context.Context, id uuid.UUID, url string) error
	DeleteStory(ctx context.Context, id uuid.UUID) error

	CreatePitch(ctx context.Context, pitch *models.StoryPitch) error
	ListPitches(ctx context.Context, worldID uuid.UUID) ([]models.StoryPitch, error)
	GetPitch(ctx context.Context, id uuid.UUID) (*models.StoryPitch, error)
	MarkPitchUsed(ctx context.Context, id uuid.UUID) error
	ReplacePitchOutline(ctx context.Context, id uuid.UUID, outline []models.OutlineEntry) (*models.StoryPitch, error)

	// CreateChapter writes the chapter row and all its segment rows in one
	// transaction so a chapter is never half-persisted.
	CreateChapter(ctx context.Context, chapter *models.Chapter, segments []models.Segment) error
	ListChapters(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error)
	GetChapter(ctx context.Context, storyID uuid.UUID, chapterNumber int) (*models.Chapter, error)
	GetChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, id uuid.UUID, upd models.ChapterUpdate) (*models.Chapter, error)

	ListSegments(ctx context.Context, chapterID uuid.UUID) ([]models.Segment, error)
	GetSegment(ctx context.Context, id uuid.UUID) (*models.Segment, error)
	UpdateSegment(ctx context.Context, id uuid.UUID, upd models.SegmentUpdate) (*models.Segment, error)
	SetSegmentImageURL(ctx context.Context, id uuid.UUID, url string) error
	SetSegmentStoryboard(ctx context.Context, id uuid.UUID, sb *models.SegmentStoryboard, refIDs []uuid.UUID) error

	CreateReferences(ctx context.Context, refs []models.StoryReference) error
	ListReferences(ctx context.Context, storyID uuid.UUID) ([]models.StoryReference, error)
	SetReferenceImageURL(ctx context.Context, id uuid.UUID, url string) error
}

type storyRepository struct {
	db *pgxpool.Pool
}

func NewStoryRepository(db *pgxpool.Pool) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) CreateStory(ctx context.Context, s *models.Story) error {
	query := `
        INSERT INTO stories (id, world_id, title, description, chapter_count, status,
                             is_published, bible, cover_image_url, background_music_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		s.ID, s.WorldID, s.Title, s.Description, s.ChapterCount, s.Status,
		s.IsPublished, s.Bible, s.CoverImageURL, s.BackgroundMusicURL,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: create story: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *storyRepository) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	var s models.Story
	if err := pgxscan.Get(ctx, r.db, &s, `SELECT * FROM stories WHERE id = $1`, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: story %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get story: %v", models.ErrPersistence, err)
	}
	return &s, nil
}

func (r *storyRepository) ListByWorld(ctx context.Context, worldID uuid.UUID) ([]models.Story, error) {
	var stories []models.Story
	query := `SELECT * FROM stories WHERE world_id = $1 ORDER BY created_at`
	if err := pgxscan.Select(ctx, r.db, &stories, query, worldID); err != nil {
		return nil, fmt.Errorf("%w: list stories: %v", models.ErrPersistence, err)
	}
	return stories, nil
}

func (r *storyRepository) ListPublishedByWorld(ctx context.Context, worldID uuid.UUID) ([]models.Story, error) {
	var stories []models.Story
	query := `SELECT * FROM stories WHERE world_id = $1 AND is_published ORDER BY created_at`
	if err := pgxscan.Select(ctx, r.db, &stories, query, worldID); err != nil {
		return nil, fmt.Errorf("%w: list published stories: %v", models.ErrPersistence, err)
	}
	return stories, nil
}

func (r *storyRepository) UpdateStory(ctx context.Context, id uuid.UUID, upd models.StoryUpdate) (*models.Story, error) {
	var s models.Story
	query := `
        UPDATE stories SET
            title                = COALESCE($2, title),
            description          = COALESCE($3, description),
            status               = COALESCE($4, status),
            is_published         = COALESCE($5, is_published),
            cover_image_url      = COALESCE($6, cover_image_url),
            background_music_url = COALESCE($7, background_music_url),
            bible                = COALESCE($8, bible),
            updated_at           = now()
        WHERE id = $1
        RETURNING *`
	err := pgxscan.Get(ctx, r.db, &s, query, id,
		upd.Title, upd.Description, upd.Status, upd.IsPublished,
		upd.CoverImageURL, upd.BackgroundMusicURL, upd.Bible)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: story %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: update story: %v", models.ErrPersistence, err)
	}
	return &s, nil
}

func (r *storyRepository) SetStoryStatus(ctx context.Context, id uuid.UUID, status models.StoryStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE stories SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("%w: set story status: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: story %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *storyRepository) SetStoryMusicURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE stories SET background_music_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("%w: set story music url: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *storyRepository) DeleteStory(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete story: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: story %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *storyRepository) CreatePitch(ctx context.Context, p *models.StoryPitch) error {
	query := `
        INSERT INTO story_pitches (id, world_id, title, description, outline, is_used)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		p.ID, p.WorldID, p.Title, p.Description, p.Outline, p.IsUsed,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: create pitch: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *storyRepository) ListPitches(ctx context.Context, worldID uuid.UUID) ([]models.StoryPitch, error) {
	var pitches []models.StoryPitch
	query := `SELECT * FROM story_pitches WHERE world_id = $1 ORDER BY created_at DESC`
	if err := pgxscan.Select(ctx, r.db, &pitches, query, worldID); err != nil {
		return nil, fmt.Errorf("%w: list pitches: %v", models.ErrPersistence, err)
	}
	return pitches, nil
}

func (r *storyRepository) GetPitch(ctx context.Context, id uuid.UUID) (*models.StoryPitch, error) {
	var p models.StoryPitch
	if err := pgxscan.Get(ctx, r.db, &p, `SELECT * FROM story_pitches WHERE id = $1`, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: pitch %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get pitch: %v", models.ErrPersistence, err)
	}
	return &p, nil
}

func (r *storyRepository) MarkPitchUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE story_pitches SET is_used = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: mark pitch used: %v", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pitch %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *storyRepository) ReplacePitchOutline(ctx context.Context, id uuid.UUID, outline []models.OutlineEntry) (*models.StoryPitch, error) {
	var p models.StoryPitch
	query := `UPDATE story_pitches SET outline = $2 WHERE id = $1 RETURNING *`
	if err := pgxscan.Get(ctx, r.db, &p, query, id, outline); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: pitch %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: replace pitch outline: %v", models.ErrPersistence, err)
	}
	return &p, nil
}

func (r *storyRepository) CreateChapter(ctx context.Context, ch *models.Chapter, segments []models.Segment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin chapter tx: %v", models.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	chapterQuery := `
        INSERT INTO chapters (id, story_id, chapter_number, title, recap, cliffhanger, teaser)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`
	err = tx.QueryRow(ctx, chapterQuery,
		ch.ID, ch.StoryID, ch.ChapterNumber, ch.Title, ch.Recap, ch.Cliffhanger, ch.Teaser,
	).Scan(&ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: chapter %d already exists for story %s",
				models.ErrConflict, ch.ChapterNumber, ch.StoryID)
		}
		return fmt.Errorf("%w: create chapter: %v", models.ErrPersistence, err)
	}

	segmentQuery := `
        INSERT INTO segments (id, chapter_id, position, text, duration_seconds,
                              brushing_zone, brushing_prompt, image_prompt, image_url,
                              storyboard, reference_ids)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for i := range segments {
		seg := &segments[i]
		if _, err := tx.Exec(ctx, segmentQuery,
			seg.ID, seg.ChapterID, seg.Position, seg.Text, seg.DurationSeconds,
			seg.BrushingZone, seg.BrushingPrompt, seg.ImagePrompt, seg.ImageURL,
			seg.Storyboard, seg.ReferenceIDs,
		); err != nil {
			return fmt.Errorf("%w: create segment %d: %v", models.ErrPersistence, seg.Position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit chapter tx: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *storyRepository) ListChapters(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error) {
	var chapters []models.Chapter
	query := `SELECT * FROM chapters WHERE story_id = $1 ORDER BY chapter_number`
	if err := pgxscan.Select(ctx, r.db, &chapters, query, storyID); err != nil {
		return nil, fmt.Errorf("%w: list chapters: %v", models.ErrPersistence, err)
	}
	return chapters, nil
}

func (r *storyRepository) GetChapter(ctx context.Context, storyID uuid.UUID, chapterNumber int) (*models.Chapter, error) {
	var ch models.Chapter
	query := `SELECT * FROM chapters WHERE story_id = $1 AND chapter_number = $2`
	if err := pgxscan.Get(ctx, r.db, &ch, query, storyID, chapterNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chapter %d of story %s", models.ErrNotFound, chapterNumber, storyID)
		}
		return nil, fmt.Errorf("%w: get chapter: %v", models.ErrPersistence, err)
	}
	return &ch, nil
}

func (r *storyRepository) GetChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	var ch models.Chapter
	if err := pgxscan.Get(ctx, r.db, &ch, `SELECT * FROM chapters WHERE id = $1`, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chapter %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get chapter: %v", models.ErrPersistence, err)
	}
	return &ch, nil
}

func (r *storyRepository) UpdateChapter(ctx context.Context, id uuid.UUID, upd models.ChapterUpdate) (*models.Chapter, error) {
	var ch models.Chapter
	query := `
        UPDATE chapters SET
            title       = COALESCE($2, title),
            recap       = COALESCE($3, recap),
            cliffhanger = COALESCE($4, cliffhanger),
            teaser      = COALESCE($5, teaser),
            updated_at  = now()
        WHERE id = $1
        RETURNING *`
	if err := pgxscan.Get(ctx, r.db, &ch, query, id, upd.Title, upd.Recap, upd.Cliffhanger, upd.Teaser); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chapter %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: update chapter: %v", models.ErrPersistence, err)
	}
	return &ch, nil
}

func (r *storyRepository) ListSegments(ctx context.Context, chapterID uuid.UUID) ([]models.Segment, error) {
	var segments []models.Segment
	query := `SELECT * FROM segments WHERE chapter_id = $1 ORDER BY position`
	if err := pgxscan.Select(ctx, r.db, &segments, query, chapterID); err != nil {
		return nil, fmt.Errorf("%w: list segments: %v", models.ErrPersistence, err)
	}
	return segments, nil
}

func (r *storyRepository) GetSegment(ctx context.Context, id uuid.UUID) (*models.Segment, error) {
	var seg models.Segment
	if err := pgxscan.Get(ctx, r.db, &seg, `SELECT * FROM segments WHERE id = $1`, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: segment %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get segment: %v", models.ErrPersistence, err)
	}
	return &seg, nil
}

func (r *storyRepository) UpdateSegment(ctx context.Context, id uuid.UUID, upd models.SegmentUpdate) (*models.Segment, error) {
	var seg models.Segment
	query := `
        UPDATE segments SET
            text            = COALESCE($2, text),
            brushing_zone   = COALESCE($3, brushing_zone),
            brushing_prompt = COALESCE($4, brushing_prompt),
            image_prompt    = COALESCE($5, image_prompt),
            image_url       = COALESCE($6, image_url),
            storyboard      = COALESCE($7, storyboard)
        WHERE id = $1
        RETURNING *`
	err := pgxscan.Get(ctx, r.db, &seg, query, id,
		upd.Text, upd.BrushingZone, upd.BrushingPrompt, upd.ImagePrompt, upd.ImageURL, upd.Storyboard)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: segment %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: update segment: %v", models.ErrPersistence, err)
	}
	return &seg, nil
}

func (r *storyRepository) SetSegmentImageURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := r.db.Exec(ctx, `UPDATE segments SET image_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("%w: set segment image url: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *storyRepository) SetSegmentStoryboard(ctx context.Context, id uuid.UUID, sb *models.SegmentStoryboard, refIDs []uuid.UUID) error {
	if refIDs == nil {
		refIDs = []uuid.UUID{}
	}
	_, err := r.db.Exec(ctx,
		`UPDATE segments SET storyboard = $2, reference_ids = $3 WHERE id = $1`, id, sb, refIDs)
	if err != nil {
		return fmt.Errorf("%w: set segment storyboard: %v", models.ErrPersistence, err)
	}
	return nil
}

func (r *storyRepository) CreateReferences(ctx context.Context, refs []models.StoryReference) error {
	query := `
        INSERT INTO story_references (id, story_id, type, name, description, mood,
                                      personality, role, source, sort_order, image_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for i := range refs {
		ref := &refs[i]
		if _, err := r.db.Exec(ctx, query,
			ref.ID, ref.StoryID, ref.Type, ref.Name, ref.Description, ref.Mood,
			ref.Personality, ref.Role, ref.Source, ref.SortOrder, ref.ImageURL,
		); err != nil {
			return fmt.Errorf("%w: create reference %q: %v", models.ErrPersistence, ref.Name, err)
		}
	}
	return nil
}

func (r *storyRepository) ListReferences(ctx context.Context, storyID uuid.UUID) ([]models.StoryReference, error) {
	var refs []models.StoryReference
	query := `SELECT * FROM story_references WHERE story_id = $1 ORDER BY sort_order, name`
	if err := pgxscan.Select(ctx, r.db, &refs, query, storyID); err != nil {
		return nil, fmt.Errorf("%w: list references: %v", models.ErrPersistence, err)
	}
	return refs, nil
}

func (r *storyRepository) SetReferenceImageURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := r.db.Exec(ctx, `UPDATE story_references SET image_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("%w: set reference image url: %v", models.ErrPersistence, err)
	}
	return nil
}
