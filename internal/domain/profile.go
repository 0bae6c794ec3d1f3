package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the one-to-one public profile of an auth identity; ID is the user id.
type Profile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;default:''" json:"name"`
	Bio       string    `gorm:"column:bio;not null;default:''" json:"bio"`
	AvatarURL string    `gorm:"column:avatar_url;not null;default:''" json:"avatar_url"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
