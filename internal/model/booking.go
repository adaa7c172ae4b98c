package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookings
//
// Инвариант хранилища: не более одной строки со статусом confirmed на слот.
// Частичный уникальный индекс — последний рубеж защиты от двойного бронирования.
// Отменённые бронирования сохраняются как история и никогда не удаляются.
type Booking struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID     `gorm:"type:uuid;not null;index"`
	SlotID      uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status      BookingStatus `gorm:"type:varchar(32);not null;index"`
	CreatedAt   time.Time     `gorm:"not null;default:now()"`
	UpdatedAt   time.Time     `gorm:"not null;default:now()"`
	CancelledAt *time.Time    `gorm:"type:timestamp with time zone"`

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Slot *Slot `gorm:"foreignKey:SlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
