package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Тип события аудита.
type EventType string

const (
	EventTypeBookingCreated   EventType = "booking_created"
	EventTypeBookingCancelled EventType = "booking_cancelled"
	EventTypeSlotPublished    EventType = "slot_published"
	EventTypeSlotDeleted      EventType = "slot_deleted"
)

// events — события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	SlotID    *uuid.UUID `gorm:"type:uuid;index"`
	BookingID *uuid.UUID `gorm:"type:uuid;index"`

	// Произвольные детали события (jsonb в Postgres).
	Payload datatypes.JSON `gorm:"type:jsonb"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
