// Package admission реализует транзакционное ядро бронирования: атомарное
// решение, кто из конкурирующих вызывающих получает слот.
package admission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SauceFoong/slot-booking-system/internal/model"
	"github.com/SauceFoong/slot-booking-system/internal/outcome"
	"github.com/SauceFoong/slot-booking-system/internal/repository"
)

const (
	// Максимум будущих confirmed-бронирований на пользователя.
	MaxActiveBookings = 5
	// Отмена возможна строго раньше, чем за это время до начала слота.
	CancellationWindow = time.Hour
)

// EventPublisher отправляет доменные события во внешний брокер.
// Реализация — internal/mq; nil означает "события отключены".
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Service — транзакция допуска. Все проверки и записи одного вызова выполняются
// в одной serializable-транзакции; блокировка строки слота — единственный
// межпроцессный примитив синхронизации.
type Service struct {
	db       *gorm.DB
	slots    repository.SlotRepository
	bookings repository.BookingRepository
	users    repository.UserRepository
	events   repository.EventRepository
	pub      EventPublisher
	now      func() time.Time
}

type Option func(*Service)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher подключает брокер доменных событий.
func WithPublisher(pub EventPublisher) Option {
	return func(s *Service) { s.pub = pub }
}

func NewService(
	db *gorm.DB,
	slots repository.SlotRepository,
	bookings repository.BookingRepository,
	users repository.UserRepository,
	events repository.EventRepository,
	opts ...Option,
) *Service {
	s := &Service{
		db:       db,
		slots:    slots,
		bookings: bookings,
		users:    users,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var txSerializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// Book — попытка бронирования слота пользователем.
//
// Проверки выполняются строго по порядку, отказ на первом нарушенном правиле:
// блокировка строки → существование → статус → время → не свой слот →
// лимит активных бронирований → нет другого бронирования у того же хоста.
// Прошедший все проверки вызывающий переводит слот в booked и вставляет
// confirmed-бронирование; проигравшие гонку увидят Conflict.
func (s *Service) Book(ctx context.Context, userID, slotID uuid.UUID) (*model.Booking, error) {
	var booking *model.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slots := s.slots.WithTx(tx)
		bookings := s.bookings.WithTx(tx)

		slot, err := slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return outcome.NotFound("slot not found")
			}
			return err
		}

		if slot.Status != model.SlotStatusAvailable {
			return outcome.Conflict("slot unavailable")
		}

		now := s.now()
		if !slot.StartsAt.After(now) {
			return outcome.InvalidRequest("slot in the past")
		}

		if slot.HostID == userID {
			return outcome.InvalidRequest("own slot")
		}

		active, err := bookings.CountFutureConfirmed(ctx, userID, now)
		if err != nil {
			return err
		}
		if active >= MaxActiveBookings {
			return outcome.Conflict("max active bookings")
		}

		dup, err := bookings.HasConfirmedWithHost(ctx, userID, slot.HostID)
		if err != nil {
			return err
		}
		if dup {
			return outcome.Conflict("duplicate host booking")
		}

		if err := slots.UpdateStatus(ctx, slot.ID, model.SlotStatusBooked); err != nil {
			return err
		}

		b := &model.Booking{
			ID:     uuid.New(),
			UserID: userID,
			SlotID: slot.ID,
			Status: model.BookingStatusConfirmed,
		}
		if err := bookings.Create(ctx, b); err != nil {
			return err
		}

		booking = b
		return nil
	}, txSerializable)
	if err != nil {
		return nil, outcome.FromStore(err)
	}

	s.audit(ctx, model.EventTypeBookingCreated, &userID, &booking.SlotID, &booking.ID, map[string]any{
		"booking_id": booking.ID,
		"slot_id":    booking.SlotID,
		"user_id":    userID,
	})
	s.publish(ctx, "booking.created", map[string]any{
		"booking_id": booking.ID,
		"slot_id":    booking.SlotID,
		"user_id":    userID,
	})
	return booking, nil
}

// Cancel отменяет confirmed-бронирование его владельцем и возвращает слот
// в available. Блокировка строки не нужна: меняется только состояние,
// эксклюзивно связанное с бронированием вызывающего.
func (s *Service) Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*model.Booking, error) {
	var booking *model.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slots := s.slots.WithTx(tx)
		bookings := s.bookings.WithTx(tx)

		b, err := bookings.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return outcome.NotFound("booking not found")
			}
			return err
		}

		if b.UserID != userID {
			return outcome.Forbidden("not the booking owner")
		}

		if b.Status == model.BookingStatusCancelled {
			return outcome.Conflict("already cancelled")
		}

		slot, err := slots.GetByID(ctx, b.SlotID)
		if err != nil {
			return err
		}

		now := s.now()
		if !now.Before(slot.StartsAt.Add(-CancellationWindow)) {
			return outcome.InvalidRequest("too late to cancel")
		}

		cancelledAt := now
		if err := bookings.UpdateStatus(ctx, b.ID, model.BookingStatusCancelled, &cancelledAt); err != nil {
			return err
		}
		if err := slots.UpdateStatus(ctx, slot.ID, model.SlotStatusAvailable); err != nil {
			return err
		}

		b.Status = model.BookingStatusCancelled
		b.CancelledAt = &cancelledAt
		booking = b
		return nil
	}, txSerializable)
	if err != nil {
		return nil, outcome.FromStore(err)
	}

	s.audit(ctx, model.EventTypeBookingCancelled, &userID, &booking.SlotID, &booking.ID, map[string]any{
		"booking_id": booking.ID,
		"slot_id":    booking.SlotID,
	})
	s.publish(ctx, "booking.cancelled", map[string]any{
		"booking_id": booking.ID,
		"slot_id":    booking.SlotID,
	})
	return booking, nil
}

// audit пишет событие в журнал best-effort: отказ аудита не откатывает
// уже закоммиченное решение.
func (s *Service) audit(
	ctx context.Context,
	typ model.EventType,
	userID, slotID, bookingID *uuid.UUID,
	payload map[string]any,
) {
	if s.events == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("admission: marshal audit payload: %v", err)
		return
	}
	ev := &model.Event{
		ID:        uuid.New(),
		EventType: typ,
		UserID:    userID,
		SlotID:    slotID,
		BookingID: bookingID,
		Payload:   raw,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		log.Printf("admission: append audit event %s: %v", typ, err)
	}
}

func (s *Service) publish(ctx context.Context, key string, v any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishJSON(ctx, key, v); err != nil {
		log.Printf("admission: publish %s: %v", key, err)
	}
}
