package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PetEventCreated     = "CREATED"
	PetEventFavorited   = "FAVORITED"
	PetEventUnfavorited = "UNFAVORITED"
)

// PetEvent is an append-only audit row for listing activity.
type PetEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	PetID     uint           `gorm:"column:pet_id;not null;index" json:"pet_id"`
	EventType string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	ActorID   *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	EventData datatypes.JSON `gorm:"column:event_data;not null" json:"event_data"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (PetEvent) TableName() string {
	return "pet_events"
}

func (e *PetEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

// NewPetEvent builds an event with data marshalled into the JSON column.
func NewPetEvent(petID uint, eventType string, actor *uuid.UUID, data map[string]interface{}) *PetEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	b, _ := json.Marshal(data)
	return &PetEvent{
		PetID:     petID,
		EventType: eventType,
		ActorID:   actor,
		EventData: datatypes.JSON(b),
	}
}

// Models lists every table the service owns, in migration order.
func Models() []interface{} {
	return []interface{}{&User{}, &Profile{}, &Listing{}, &Favorite{}, &PetEvent{}}
}
