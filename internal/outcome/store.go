package outcome

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Коды ошибок Postgres, значимые для ядра. Сопоставление идёт по структурным
// кодам драйвера, не по тексту сообщений.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
	pgSerializationFail  = "40001"
	pgDeadlockDetected   = "40P01"
	pgLockNotAvailable   = "55P03"
)

// AsRejection извлекает *Rejection из цепочки ошибок.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// FromStore переводит ошибку хранилища в таксономию отказов.
//
// Нарушение уникальности или exclusion constraint — это сработавший последний
// рубеж защиты: для вызывающего оно неотличимо от обычного проигрыша гонки и
// отдаётся как Conflict. Сбои сериализации и дедлоки — тоже Conflict (проигравший
// гонку); повтор — решение вызывающего, ядро не ретраит.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if r, ok := AsRejection(err); ok {
		return r
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("record not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("slot already booked")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return Conflict("slot already booked")
		case pgExclusionViolation:
			return Conflict("slot overlaps an existing slot")
		case pgSerializationFail, pgDeadlockDetected, pgLockNotAvailable:
			return Conflict("concurrent update, request lost the race")
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Conflict("request cancelled before completion")
	}

	return Internal("storage failure")
}
