package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clearaway_backend/internal/booking/domain"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "booking:session:"
	lockKeyPrefix    = "booking:submitlock:"
	// submitLockTTL caps how long a crashed submission holds the lock.
	submitLockTTL = 2 * time.Minute
)

// RedisRepository stores sessions as JSON values with a TTL.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed session repository from a redis URL.
func NewRedis(redisURL string, ttl time.Duration) (*RedisRepository, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisRepository{client: redis.NewClient(opt), ttl: ttl}, nil
}

// NewRedisWithClient wraps an existing client (used by tests).
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

// Ping checks connectivity for readiness probes.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.set(ctx, session)
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (r *RedisRepository) Update(ctx context.Context, session *domain.Session) error {
	return r.set(ctx, session)
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}

func (r *RedisRepository) TryLockSubmit(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+id, "1", submitLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire submit lock: %w", err)
	}
	return ok, nil
}

func (r *RedisRepository) UnlockSubmit(ctx context.Context, id string) error {
	return r.client.Del(ctx, lockKeyPrefix+id).Err()
}

func (r *RedisRepository) set(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, sessionKeyPrefix+session.ID, data, r.ttl).Err()
}

// Compile-time check.
var _ Repository = (*RedisRepository)(nil)
