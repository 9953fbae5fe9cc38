package models

import (
	"time"

	"github.com/google/uuid"
)

// CollectibleType classifies a collectible.
type CollectibleType string

const (
	CollectibleSticker   CollectibleType = "sticker"
	CollectibleAccessory CollectibleType = "accessory"
)

// Collectible is a sticker or accessory a child can earn.
type Collectible struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Type        CollectibleType `json:"type" db:"type"`
	Name        string          `json:"name" db:"name"`
	DisplayName string          `json:"displayName" db:"display_name"`
	Description string          `json:"description" db:"description"`
	ImageURL    *string         `json:"imageUrl" db:"image_url"`
	Rarity      string          `json:"rarity" db:"rarity"`
	WorldID     *uuid.UUID      `json:"worldId" db:"world_id"`
	PetID       *uuid.UUID      `json:"petId" db:"pet_id"`
	IsPublished bool            `json:"isPublished" db:"is_published"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// CollectibleUpdate carries a partial collectible update.
type CollectibleUpdate struct {
	DisplayName *string `json:"displayName"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	Rarity      *string `json:"rarity"`
	IsPublished *bool   `json:"isPublished"`
}
