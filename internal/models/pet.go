package models

import (
	"time"

	"github.com/google/uuid"
)

// Pet is a companion character a child can select.
type Pet struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"` // unique slug
	DisplayName        string    `json:"displayName" db:"display_name"`
	Description        string    `json:"description" db:"description"`
	Personality        string    `json:"personality" db:"personality"`
	UnlockCost         int       `json:"unlockCost" db:"unlock_cost"`
	IsStarter          bool      `json:"isStarter" db:"is_starter"`
	AvatarURL          *string   `json:"avatarUrl" db:"avatar_url"`
	ImageURL           *string   `json:"imageUrl" db:"image_url"`
	NameAudioURL       *string   `json:"nameAudioUrl" db:"name_audio_url"`
	PossessiveAudioURL *string   `json:"possessiveAudioUrl" db:"possessive_audio_url"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// PetSuggestion is an unapproved AI-generated pet candidate. Approving it
// copies its fields into a new Pet row.
type PetSuggestion struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	DisplayName string    `json:"displayName" db:"display_name"`
	Description string    `json:"description" db:"description"`
	Personality string    `json:"personality" db:"personality"`
	UnlockCost  int       `json:"unlockCost" db:"unlock_cost"`
	AvatarURL   *string   `json:"avatarUrl" db:"avatar_url"`
	IsApproved  bool      `json:"isApproved" db:"is_approved"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// PetUpdate carries a partial pet update.
type PetUpdate struct {
	DisplayName        *string `json:"displayName"`
	Description        *string `json:"description"`
	Personality        *string `json:"personality"`
	UnlockCost         *int    `json:"unlockCost"`
	IsStarter          *bool   `json:"isStarter"`
	AvatarURL          *string `json:"avatarUrl"`
	ImageURL           *string `json:"imageUrl"`
	NameAudioURL       *string `json:"nameAudioUrl"`
	PossessiveAudioURL *string `json:"possessiveAudioUrl"`
}
