package models

import (
	"time"

	"github.com/google/uuid"
)

// World is a themed setting containing multiple stories.
type World struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"` // unique slug
	DisplayName        string    `json:"displayName" db:"display_name"`
	Description        string    `json:"description" db:"description"`
	Theme              string    `json:"theme" db:"theme"`
	UnlockCost         int       `json:"unlockCost" db:"unlock_cost"`
	IsStarter          bool      `json:"isStarter" db:"is_starter"`
	IsPublished        bool      `json:"isPublished" db:"is_published"`
	BackgroundImageURL *string   `json:"backgroundImageUrl" db:"background_image_url"`
	BackgroundMusicURL *string   `json:"backgroundMusicUrl" db:"background_music_url"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// WorldUpdate carries a partial update. Nil fields keep the persisted value
// (COALESCE semantics in the repository).
type WorldUpdate struct {
	DisplayName        *string `json:"displayName"`
	Description        *string `json:"description"`
	Theme              *string `json:"theme"`
	UnlockCost         *int    `json:"unlockCost"`
	IsStarter          *bool   `json:"isStarter"`
	IsPublished        *bool   `json:"isPublished"`
	BackgroundImageURL *string `json:"backgroundImageUrl"`
	BackgroundMusicURL *string `json:"backgroundMusicUrl"`
}

// WorldSummary is the list representation, annotated with the number of
// stories the world contains.
type WorldSummary struct {
	World
	StoryCount int `json:"storyCount" db:"story_count"`
}
