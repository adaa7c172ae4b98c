package admission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SauceFoong/slot-booking-system/internal/model"
	"github.com/SauceFoong/slot-booking-system/internal/outcome"
)

// Publish публикует новый слот хоста. Пересечение с существующими слотами
// проверяется прикладным предикатом по полуоткрытым интервалам [start, end);
// exclusion constraint хранилища остаётся независимым рубежом на случай гонки
// двух публикаций.
func (s *Service) Publish(ctx context.Context, hostID uuid.UUID, start, end time.Time) (*model.Slot, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, outcome.InvalidRequest("invalid slot time range")
	}

	var slot *model.Slot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		slots := s.slots.WithTx(tx)

		isHost, err := users.HasRole(ctx, hostID, model.RoleHost)
		if err != nil {
			return err
		}
		if !isHost {
			return outcome.Forbidden("host role required")
		}

		overlapping, err := slots.ListOverlapping(ctx, hostID, start, end)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return outcome.Conflict("slot overlaps an existing slot")
		}

		sl := &model.Slot{
			ID:       uuid.New(),
			HostID:   hostID,
			StartsAt: start,
			EndsAt:   end,
			Status:   model.SlotStatusAvailable,
		}
		if err := slots.Create(ctx, sl); err != nil {
			return err
		}

		slot = sl
		return nil
	}, txSerializable)
	if err != nil {
		return nil, outcome.FromStore(err)
	}

	s.audit(ctx, model.EventTypeSlotPublished, &hostID, &slot.ID, nil, map[string]any{
		"slot_id":   slot.ID,
		"starts_at": slot.StartsAt,
		"ends_at":   slot.EndsAt,
	})
	s.publish(ctx, "slot.published", map[string]any{
		"slot_id": slot.ID,
		"host_id": hostID,
	})
	return slot, nil
}

// Delete удаляет слот хоста: переход available → cancelled, терминальный.
// Слот с активным бронированием сначала должен быть отменён гостем.
func (s *Service) Delete(ctx context.Context, hostID, slotID uuid.UUID) (*model.Slot, error) {
	var slot *model.Slot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slots := s.slots.WithTx(tx)

		sl, err := slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return outcome.NotFound("slot not found")
			}
			return err
		}

		if sl.HostID != hostID {
			return outcome.Forbidden("not the slot owner")
		}

		switch sl.Status {
		case model.SlotStatusAvailable:
			// единственный разрешённый исходный статус
		case model.SlotStatusBooked:
			return outcome.Conflict("slot has an active booking")
		default:
			return outcome.Conflict("slot already cancelled")
		}

		if err := slots.UpdateStatus(ctx, sl.ID, model.SlotStatusCancelled); err != nil {
			return err
		}

		sl.Status = model.SlotStatusCancelled
		slot = sl
		return nil
	}, txSerializable)
	if err != nil {
		return nil, outcome.FromStore(err)
	}

	s.audit(ctx, model.EventTypeSlotDeleted, &hostID, &slot.ID, nil, map[string]any{
		"slot_id": slot.ID,
	})
	return slot, nil
}
