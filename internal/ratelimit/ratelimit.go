// Package ratelimit — распределённый лимитер с фиксированным окном,
// отделяющий ядро бронирования от штормов повторных запросов.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Decision — результат проверки лимита. Limit, Remaining и ResetAt
// отдаются вызывающему при любом исходе, чтобы тот мог корректно отступить.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// CounterStore атомарно инкрементирует счётчик окна и возвращает значение
// после инкремента. TTL выставляется при первом инкременте в окне.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter считает запросы по ключу (purpose, caller) в фиксированном окне.
// Вызывающие полностью независимы друг от друга.
type Limiter struct {
	store   CounterStore
	purpose string
	limit   int
	window  time.Duration
	now     func() time.Time
}

type Option func(*Limiter)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func NewLimiter(store CounterStore, purpose string, limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:   store,
		purpose: purpose,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Limit() int { return l.limit }

// Allow регистрирует попытку вызывающего и решает, пропустить ли её.
//
// При недоступности хранилища счётчиков лимитер открывается (запрос
// пропускается): доступность пути бронирования важнее строгого учёта.
// Ошибка возвращается вместе с положительным решением, чтобы вызывающий
// мог её залогировать.
func (l *Limiter) Allow(ctx context.Context, callerID string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	resetAt := windowStart.Add(l.window)

	key := fmt.Sprintf("ratelimit:%s:%s:%d", l.purpose, callerID, windowStart.Unix())

	count, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return Decision{
			Allowed:   true,
			Limit:     l.limit,
			Remaining: l.limit,
			ResetAt:   resetAt,
		}, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if count > int64(l.limit) {
		return Decision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
