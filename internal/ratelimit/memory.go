package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore — внутрипроцессное хранилище счётчиков с периодической
// уборкой истёкших ключей. Годится для одного инстанса и для тестов;
// в продакшене счётчики разделяются через Redis.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	cleanupEvery time.Duration
	now          func() time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

type MemoryOption func(*MemoryCounterStore)

func WithCleanupEvery(d time.Duration) MemoryOption {
	return func(s *MemoryCounterStore) { s.cleanupEvery = d }
}

// WithMemoryClock подменяет источник времени (для тестов).
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryCounterStore) { s.now = now }
}

func NewMemoryCounterStore(opts ...MemoryOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries:      make(map[string]*memoryEntry),
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || !ent.expiresAt.After(now) {
		ent = &memoryEntry{expiresAt: now.Add(window)}
		s.entries[key] = ent
	}
	ent.count++
	return ent.count, nil
}

func (s *MemoryCounterStore) Cleanup() {
	cutoff := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if !ent.expiresAt.After(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor запускает горутину периодической уборки.
// Останавливается отменой контекста.
func (s *MemoryCounterStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
