package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore — разделяемое хранилище счётчиков на Redis.
// Ключ окна и так привязан к его началу, поэтому TTL служит только
// сборкой мусора и выставляется один раз на ключ.
type RedisCounterStore struct {
	rdb    *redis.Client
	prefix string
}

type RedisOption func(*RedisCounterStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisCounterStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func NewRedisCounterStore(rdb *redis.Client, opts ...RedisOption) *RedisCounterStore {
	s := &RedisCounterStore{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if s.prefix != "" {
		key = s.prefix + ":" + key
	}

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
