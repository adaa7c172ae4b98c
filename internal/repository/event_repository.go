package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SauceFoong/slot-booking-system/internal/model"
)

type EventRepository interface {
	// Записать событие аудита.
	Append(ctx context.Context, event *model.Event) error
}

// Реализация на GORM.
type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Append(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}
