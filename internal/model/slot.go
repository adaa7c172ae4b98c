package model

import (
	"time"

	"github.com/google/uuid"
)

// Статус слота.
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// slots
//
// Инвариант хранилища: слоты одного хоста не пересекаются по [starts_at, ends_at),
// пока статус не cancelled. Enforced через exclusion constraint (см. ApplyConstraints).
type Slot struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	HostID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	Status SlotStatus `gorm:"type:varchar(32);not null;default:'available';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Host *User `gorm:"foreignKey:HostID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
