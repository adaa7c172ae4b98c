package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SauceFoong/slot-booking-system/internal/model"
)

type JobRepository interface {
	// Журналировать заявку до постановки в очередь.
	Create(ctx context.Context, job *model.AdmissionJob) error
	// Отметить заявку обработанной.
	MarkDone(ctx context.Context, id uuid.UUID) error
	// Необработанные заявки в порядке поступления (для оперативного разбора после рестарта).
	ListQueued(ctx context.Context, limit int) ([]model.AdmissionJob, error)
}

// Реализация на GORM.
type GormJobRepository struct {
	db *gorm.DB
}

func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

func (r *GormJobRepository) Create(ctx context.Context, job *model.AdmissionJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *GormJobRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.AdmissionJob{}).
		Where("id = ?", id).
		Update("status", model.AdmissionJobStatusDone).
		Error
}

func (r *GormJobRepository) ListQueued(ctx context.Context, limit int) ([]model.AdmissionJob, error) {
	var jobs []model.AdmissionJob
	q := r.db.WithContext(ctx).
		Model(&model.AdmissionJob{}).
		Where("status = ?", model.AdmissionJobStatusQueued).
		Order("submitted_at_millis ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
