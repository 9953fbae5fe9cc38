package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryStatus is the lifecycle of a story.
type StoryStatus string

const (
	StoryStatusGenerating StoryStatus = "generating"
	StoryStatusDraft      StoryStatus = "draft"
	StoryStatusPublished  StoryStatus = "published"
)

// OutlineEntry is one planned chapter of a pitch outline.
type OutlineEntry struct {
	Chapter int    `json:"chapter"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// StoryPitch is a generated story idea awaiting promotion to a Story.
type StoryPitch struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	WorldID     uuid.UUID      `json:"worldId" db:"world_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Outline     []OutlineEntry `json:"outline" db:"outline"`
	IsUsed      bool           `json:"isUsed" db:"is_used"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
}

// BibleCharacter is a recurring character tracked for cross-chapter consistency.
type BibleCharacter struct {
	Name        string `json:"name"`
	Appearance  string `json:"appearance"`
	Personality string `json:"personality"`
	Role        string `json:"role"`
}

// BibleLocation is a key location tracked for cross-chapter consistency.
type BibleLocation struct {
	Name       string `json:"name"`
	Appearance string `json:"appearance"`
	Mood       string `json:"mood"`
}

// BibleObject is a recurring object tracked for cross-chapter consistency.
type BibleObject struct {
	Name        string `json:"name"`
	Appearance  string `json:"appearance"`
	Significance string `json:"significance"`
}

// StoryBible is the consistency document generated before any chapter prose.
type StoryBible struct {
	Characters []BibleCharacter `json:"characters"`
	Locations  []BibleLocation  `json:"locations"`
	Objects    []BibleObject    `json:"objects"`
}

// Story is a multi-chapter arc inside a world.
type Story struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	WorldID            uuid.UUID   `json:"worldId" db:"world_id"`
	Title              string      `json:"title" db:"title"`
	Description        string      `json:"description" db:"description"`
	ChapterCount       int         `json:"chapterCount" db:"chapter_count"`
	Status             StoryStatus `json:"status" db:"status"`
	IsPublished        bool        `json:"isPublished" db:"is_published"`
	Bible              *StoryBible `json:"bible,omitempty" db:"bible"`
	CoverImageURL      *string     `json:"coverImageUrl" db:"cover_image_url"`
	BackgroundMusicURL *string     `json:"backgroundMusicUrl" db:"background_music_url"`
	CreatedAt          time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time   `json:"updatedAt" db:"updated_at"`
}

// Chapter of a story. Chapter numbers are 1-based and unique within a story.
// Recap is null for chapter 1; Cliffhanger is empty for the final chapter.
type Chapter struct {
	ID            uuid.UUID `json:"id" db:"id"`
	StoryID       uuid.UUID `json:"storyId" db:"story_id"`
	ChapterNumber int       `json:"chapterNumber" db:"chapter_number"`
	Title         string    `json:"title" db:"title"`
	Recap         *string   `json:"recap" db:"recap"`
	Cliffhanger   string    `json:"cliffhanger" db:"cliffhanger"`
	Teaser        string    `json:"teaser" db:"teaser"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// BrushingZone is one of five fixed mouth-quadrant labels cued to the child
// during a segment.
type BrushingZone string

const (
	ZoneTopLeft     BrushingZone = "top-left"
	ZoneTopRight    BrushingZone = "top-right"
	ZoneBottomLeft  BrushingZone = "bottom-left"
	ZoneBottomRight BrushingZone = "bottom-right"
	ZoneTongue      BrushingZone = "tongue"
)

// BrushingZones is the cycling order used when decorating segments.
var BrushingZones = []BrushingZone{
	ZoneTopLeft,
	ZoneTopRight,
	ZoneBottomLeft,
	ZoneBottomRight,
	ZoneTongue,
}

// SegmentStoryboard is per-segment staging metadata derived after the chapter
// text is generated.
type SegmentStoryboard struct {
	Location       string   `json:"location"`
	Characters     []string `json:"characters"`
	ShotType       string   `json:"shotType"`
	CameraAngle    string   `json:"cameraAngle"`
	ContinuityNote string   `json:"continuityNote"`
}

// Segment is the smallest narrated unit of a chapter, nominally matched to one
// 15-second brushing interval. Text may contain [CHILD] and [PET] placeholders.
type Segment struct {
	ID              uuid.UUID          `json:"id" db:"id"`
	ChapterID       uuid.UUID          `json:"chapterId" db:"chapter_id"`
	Position        int                `json:"position" db:"position"` // 1-based, unique within chapter
	Text            string             `json:"text" db:"text"`
	DurationSeconds int                `json:"durationSeconds" db:"duration_seconds"`
	BrushingZone    *BrushingZone      `json:"brushingZone" db:"brushing_zone"`
	BrushingPrompt  *string            `json:"brushingPrompt" db:"brushing_prompt"`
	ImagePrompt     string             `json:"imagePrompt" db:"image_prompt"`
	ImageURL        *string            `json:"imageUrl" db:"image_url"`
	Storyboard      *SegmentStoryboard `json:"storyboard,omitempty" db:"storyboard"`
	ReferenceIDs    []uuid.UUID        `json:"referenceIds" db:"reference_ids"`
}

// ReferenceType classifies a StoryReference.
type ReferenceType string

const (
	ReferenceCharacter ReferenceType = "character"
	ReferenceObject    ReferenceType = "object"
	ReferenceLocation  ReferenceType = "location"
)

// ReferenceSource records whether a reference came from the story bible or was
// extracted from generated prose afterwards.
type ReferenceSource string

const (
	ReferenceSourceBible     ReferenceSource = "bible"
	ReferenceSourceExtracted ReferenceSource = "extracted"
)

// StoryReference is a named visual entity tracked per story so illustrations
// stay consistent across chapters.
type StoryReference struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	StoryID     uuid.UUID       `json:"storyId" db:"story_id"`
	Type        ReferenceType   `json:"type" db:"type"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Mood        *string         `json:"mood" db:"mood"`
	Personality *string         `json:"personality" db:"personality"`
	Role        *string         `json:"role" db:"role"`
	Source      ReferenceSource `json:"source" db:"source"`
	SortOrder   int             `json:"sortOrder" db:"sort_order"`
	ImageURL    *string         `json:"imageUrl" db:"image_url"`
}

// StoryUpdate carries a partial story update.
type StoryUpdate struct {
	Title              *string     `json:"title"`
	Description        *string     `json:"description"`
	Status             *StoryStatus `json:"status"`
	IsPublished        *bool       `json:"isPublished"`
	CoverImageURL      *string     `json:"coverImageUrl"`
	BackgroundMusicURL *string     `json:"backgroundMusicUrl"`
	Bible              *StoryBible `json:"bible"`
}

// ChapterUpdate carries a partial chapter update.
type ChapterUpdate struct {
	Title       *string `json:"title"`
	Recap       *string `json:"recap"`
	Cliffhanger *string `json:"cliffhanger"`
	Teaser      *string `json:"teaser"`
}

// SegmentUpdate carries a partial segment update.
type SegmentUpdate struct {
	Text           *string            `json:"text"`
	BrushingZone   *BrushingZone      `json:"brushingZone"`
	BrushingPrompt *string            `json:"brushingPrompt"`
	ImagePrompt    *string            `json:"imagePrompt"`
	ImageURL       *string            `json:"imageUrl"`
	Storyboard     *SegmentStoryboard `json:"storyboard"`
}
