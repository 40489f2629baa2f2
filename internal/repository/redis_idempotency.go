package repository

import (
	"context"
	"errors"
	"time"

	"github.com/GoPolymarket/logkeep/internal/config"
	"github.com/GoPolymarket/logkeep/internal/middleware"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/encoding/json"
)

// RedisIdempotencyStore shares idempotency records between API replicas.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisIdempotencyStore(client *redis.Client, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = middleware.DefaultIdempotencyTTL
	}
	return &RedisIdempotencyStore{
		client: client,
		ttl:    ttl,
		prefix: prefix + "idem:",
	}
}

type idemWire struct {
	Status     int    `json:"status"`
	Body       []byte `json:"body"`
	CreatedAt  int64  `json:"created_at"`
	Processing bool   `json:"processing"`
}

func (s *RedisIdempotencyStore) GetOrLock(ctx context.Context, key string) (*middleware.IdempotencyRecord, bool) {
	lock, _ := json.Marshal(idemWire{CreatedAt: time.Now().Unix(), Processing: true})
	ok, err := s.client.SetNX(ctx, s.prefix+key, lock, s.ttl).Result()
	if err != nil {
		// Redis down: proceed without idempotency rather than failing ingestion.
		logger.LogError(ctx, err, "idempotency lock failed", "key", key)
		return nil, false
	}
	if ok {
		return nil, false
	}

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; treat as a fresh request.
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	var wire idemWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, false
	}
	return &middleware.IdempotencyRecord{
		Status:     wire.Status,
		Body:       wire.Body,
		CreatedAt:  time.Unix(wire.CreatedAt, 0).UTC(),
		Processing: wire.Processing,
	}, true
}

func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, status int, body []byte) {
	payload, err := json.Marshal(idemWire{Status: status, Body: body, CreatedAt: time.Now().Unix()})
	if err == nil {
		err = s.client.Set(ctx, s.prefix+key, payload, s.ttl).Err()
	}
	if err != nil {
		logger.LogError(ctx, err, "idempotency save failed", "key", key)
	}
}

func (s *RedisIdempotencyStore) Unlock(ctx context.Context, key string) {
	_ = s.client.Del(ctx, s.prefix+key).Err()
}

// OpenIdempotency shares records through redis when the store backend is
// redis, and keeps them in memory otherwise.
func OpenIdempotency(cfg *config.Config) (middleware.IdempotencyStore, func() error, error) {
	ttl := cfg.Ingest.IdempotencyTTL
	if cfg.Store.Backend != "redis" {
		return middleware.NewInMemIdempotencyStore(ttl), func() error { return nil }, nil
	}
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisIdempotencyStore(client, cfg.Redis.KeyPrefix, ttl), client.Close, nil
}
