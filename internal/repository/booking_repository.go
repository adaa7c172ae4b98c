package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SauceFoong/slot-booking-system/internal/model"
)

type BookingRepository interface {
	// Создать новое бронирование.
	Create(ctx context.Context, booking *model.Booking) error
	// Получить бронирование по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Обновить статус бронирования (при отмене).
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, cancelledAt *time.Time) error
	// Количество confirmed-бронирований пользователя, чей слот ещё не начался.
	CountFutureConfirmed(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	// Есть ли у пользователя другое confirmed-бронирование у того же хоста.
	HasConfirmedWithHost(ctx context.Context, userID, hostID uuid.UUID) (bool, error)
	// Репозиторий, привязанный к переданной транзакции.
	WithTx(tx *gorm.DB) BookingRepository
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	return &GormBookingRepository{db: tx}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status model.BookingStatus,
	cancelledAt *time.Time,
) error {
	update := map[string]any{
		"status": status,
	}
	if cancelledAt != nil {
		update["cancelled_at"] = *cancelledAt
	}
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Updates(update).
		Error
}

func (r *GormBookingRepository) CountFutureConfirmed(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Joins("JOIN slots ON slots.id = bookings.slot_id").
		Where("bookings.user_id = ?", userID).
		Where("bookings.status = ?", model.BookingStatusConfirmed).
		Where("slots.starts_at > ?", now).
		Count(&count).Error
	return count, err
}

func (r *GormBookingRepository) HasConfirmedWithHost(
	ctx context.Context,
	userID, hostID uuid.UUID,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Joins("JOIN slots ON slots.id = bookings.slot_id").
		Where("bookings.user_id = ?", userID).
		Where("bookings.status = ?", model.BookingStatusConfirmed).
		Where("slots.host_id = ?", hostID).
		Count(&count).Error
	return count > 0, err
}
