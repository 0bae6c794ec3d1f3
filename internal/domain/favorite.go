package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite links a user to a listing they liked. The composite primary key
// allows at most one row per (user, pet).
type Favorite struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	PetID     uint      `gorm:"column:pet_id;primaryKey" json:"pet_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	Pet *Listing `gorm:"foreignKey:PetID;references:ID" json:"pet,omitempty"`
}

func (Favorite) TableName() string {
	return "favorites"
}
