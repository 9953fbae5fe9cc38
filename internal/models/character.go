package models

import (
	"time"

	"github.com/google/uuid"
)

// CharacterType scopes a pose definition to children or pets.
type CharacterType string

const (
	CharacterChild CharacterType = "child"
	CharacterPet   CharacterType = "pet"
)

// SpriteStatus tracks sprite image generation per pose-owner pair.
type SpriteStatus string

const (
	SpriteNotStarted SpriteStatus = "not_started"
	SpriteGenerating SpriteStatus = "generating"
	SpriteComplete   SpriteStatus = "complete"
	SpriteFailed     SpriteStatus = "failed"
)

// PoseDefinition is a named generation-prompt template for a character stance.
type PoseDefinition struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	Name           string        `json:"name" db:"name"`
	CharacterType  CharacterType `json:"characterType" db:"character_type"`
	PromptTemplate string        `json:"promptTemplate" db:"prompt_template"`
	SortOrder      int           `json:"sortOrder" db:"sort_order"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
}

// CharacterSprite is the generated image instance of a pose for a specific
// child or pet.
type CharacterSprite struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	PoseID    uuid.UUID     `json:"poseId" db:"pose_id"`
	OwnerType CharacterType `json:"ownerType" db:"owner_type"`
	OwnerID   uuid.UUID     `json:"ownerId" db:"owner_id"`
	Status    SpriteStatus  `json:"status" db:"status"`
	ImageURL  *string       `json:"imageUrl" db:"image_url"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}
