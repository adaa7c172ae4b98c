package model

import (
	"time"

	"github.com/google/uuid"
)

// Статус задания в журнале FCFS-очереди.
type AdmissionJobStatus string

const (
	AdmissionJobStatusQueued AdmissionJobStatus = "queued"
	AdmissionJobStatusDone   AdmissionJobStatus = "done"
)

// admission_jobs — журнал заявок на бронирование в режиме строгой очереди.
// Заявка журналируется до постановки в очередь; строка queued после рестарта
// означает незавершённую заявку и видна оператору.
type AdmissionJob struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	SlotID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Момент приёма заявки на границе сети, миллисекунды epoch.
	SubmittedAtMillis int64 `gorm:"not null;index"`

	Status AdmissionJobStatus `gorm:"type:varchar(32);not null;default:'queued';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
