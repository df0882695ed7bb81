package otp

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed lua/consume.lua
var consumeScript string

// RedisStore keeps codes in Redis; Consume runs as a single Lua script so two
// concurrent verifications cannot both succeed.
type RedisStore struct {
	rdb     redis.UniversalClient
	consume *redis.Script
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{
		rdb:     rdb,
		consume: redis.NewScript(consumeScript),
	}
}

func (s *RedisStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, codeKey(email), code, ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, email, code string) (bool, error) {
	res, err := s.consume.Run(ctx, s.rdb, []string{codeKey(email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("otp consume script failed: %w", err)
	}
	return res == 1, nil
}

func (s *RedisStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	return s.rdb.Set(ctx, verifiedKey(email), "1", ttl).Err()
}

func (s *RedisStore) ConsumeVerified(ctx context.Context, email string) (bool, error) {
	err := s.rdb.GetDel(ctx, verifiedKey(email)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
