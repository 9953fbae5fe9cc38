package models

import (
	"time"

	"github.com/google/uuid"
)

// Child is a player profile. Ages are restricted to 4..10. The nullable
// foreign keys are the fields whose explicit null is honored on update
// (selecting "no pet" clears the column).
type Child struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	DisplayName        string      `json:"displayName" db:"display_name"`
	Age                int         `json:"age" db:"age"`
	CharacterID        *uuid.UUID  `json:"characterId" db:"character_id"`
	PetID              *uuid.UUID  `json:"petId" db:"pet_id"`
	BrushID            *uuid.UUID  `json:"brushId" db:"brush_id"`
	WorldID            *uuid.UUID  `json:"worldId" db:"world_id"`
	Points             int         `json:"points" db:"points"`
	SessionCount       int         `json:"sessionCount" db:"session_count"`
	StreakDays         int         `json:"streakDays" db:"streak_days"`
	UnlockedWorlds     []uuid.UUID `json:"unlockedWorlds" db:"unlocked_worlds"`
	UnlockedPets       []uuid.UUID `json:"unlockedPets" db:"unlocked_pets"`
	CurrentStoryID     *uuid.UUID  `json:"currentStoryId" db:"current_story_id"`
	CurrentChapter     int         `json:"currentChapter" db:"current_chapter"`
	CompletedStories   []uuid.UUID `json:"completedStories" db:"completed_stories"`
	NameAudioURL       *string     `json:"nameAudioUrl" db:"name_audio_url"`
	PossessiveAudioURL *string     `json:"possessiveAudioUrl" db:"possessive_audio_url"`
	Stickers           []uuid.UUID `json:"stickers" db:"stickers"`
	Accessories        []uuid.UUID `json:"accessories" db:"accessories"`
	CreatedAt          time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time   `json:"updatedAt" db:"updated_at"`
}

// ChildUpdate carries a partial child update. ClearPet/ClearWorld style
// explicit nulls are represented by the json.RawMessage trick at the handler;
// here a set pointer overwrites, nil keeps.
type ChildUpdate struct {
	DisplayName        *string      `json:"displayName"`
	Age                *int         `json:"age"`
	CharacterID        *uuid.UUID   `json:"characterId"`
	PetID              *uuid.UUID   `json:"petId"`
	BrushID            *uuid.UUID   `json:"brushId"`
	WorldID            *uuid.UUID   `json:"worldId"`
	Points             *int         `json:"points"`
	SessionCount       *int         `json:"sessionCount"`
	StreakDays         *int         `json:"streakDays"`
	UnlockedWorlds     *[]uuid.UUID `json:"unlockedWorlds"`
	UnlockedPets       *[]uuid.UUID `json:"unlockedPets"`
	CurrentStoryID     *uuid.UUID   `json:"currentStoryId"`
	CurrentChapter     *int         `json:"currentChapter"`
	CompletedStories   *[]uuid.UUID `json:"completedStories"`
	NameAudioURL       *string      `json:"nameAudioUrl"`
	PossessiveAudioURL *string      `json:"possessiveAudioUrl"`
	Stickers           *[]uuid.UUID `json:"stickers"`
	Accessories        *[]uuid.UUID `json:"accessories"`

	// Explicit-null markers for the nullable foreign keys.
	ClearPet   bool `json:"-"`
	ClearWorld bool `json:"-"`
}
