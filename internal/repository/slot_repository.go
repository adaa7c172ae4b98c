package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SauceFoong/slot-booking-system/internal/model"
)

type SlotRepository interface {
	// Создать слот.
	Create(ctx context.Context, slot *model.Slot) error
	// Найти слот по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// Найти слот по ID под эксклюзивной блокировкой строки.
	// Блокирует конкурентные попытки бронирования этого же слота до конца транзакции.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// Обновить статус слота.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error
	// Не-отменённые слоты хоста, пересекающиеся с интервалом [start, end).
	ListOverlapping(ctx context.Context, hostID uuid.UUID, start, end time.Time) ([]model.Slot, error)
	// Репозиторий, привязанный к переданной транзакции.
	WithTx(tx *gorm.DB) SlotRepository
}

// Реализация на GORM.
type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) WithTx(tx *gorm.DB) SlotRepository {
	return &GormSlotRepository{db: tx}
}

func (r *GormSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	var slot model.Slot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	q := r.db.WithContext(ctx)
	// FOR UPDATE — синтаксис Postgres; в SQLite писатель и так один.
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var slot model.Slot
	if err := q.First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *GormSlotRepository) ListOverlapping(
	ctx context.Context,
	hostID uuid.UUID,
	start, end time.Time,
) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("host_id = ?", hostID).
		Where("status <> ?", model.SlotStatusCancelled).
		Where("starts_at < ? AND ends_at > ?", end, start).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}
