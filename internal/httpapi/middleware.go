package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// EdgeStore — пер-IP token-bucket на входе процесса, перед распределённым
// лимитером. Отсекает самые грубые штормы, не ходя в Redis.
type EdgeStore struct {
	mu      sync.Mutex
	entries map[string]*edgeEntry

	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type edgeEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type EdgeOption func(*EdgeStore)

func WithIdleTTL(d time.Duration) EdgeOption {
	return func(s *EdgeStore) { s.idleTTL = d }
}

func WithEdgeCleanupEvery(d time.Duration) EdgeOption {
	return func(s *EdgeStore) { s.cleanupEvery = d }
}

func NewEdgeStore(rps float64, burst int, opts ...EdgeOption) *EdgeStore {
	s := &EdgeStore{
		entries:      make(map[string]*edgeEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EdgeStore) get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &edgeEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *EdgeStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor запускает горутину уборки неактивных ключей.
// Останавливается отменой контекста.
func (s *EdgeStore) StartJanitor(ctx context.Context) {
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

// EdgeLimit — gin-middleware пограничного лимитера.
func EdgeLimit(store *EdgeStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "rate_limited",
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}
