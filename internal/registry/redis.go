package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "callrelay:activecall:"

// defaultTTL bounds registry entries so calls that never report an end do
// not accumulate forever.
const defaultTTL = 24 * time.Hour

// RedisStore keeps the active-call registry in Redis so restarts and
// multiple replicas see the same call state.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: defaultTTL}
}

func (s *RedisStore) Get(ctx context.Context, callID string) (ActiveCall, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+callID).Bytes()
	if errors.Is(err, redis.Nil) {
		return ActiveCall{}, false, nil
	}
	if err != nil {
		return ActiveCall{}, false, fmt.Errorf("registry: redis get: %w", err)
	}
	var call ActiveCall
	if err := json.Unmarshal(raw, &call); err != nil {
		return ActiveCall{}, false, fmt.Errorf("registry: decoding call %s: %w", callID, err)
	}
	return call, true, nil
}

func (s *RedisStore) Set(ctx context.Context, callID string, call ActiveCall) error {
	raw, err := json.Marshal(call)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+callID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("registry: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, callID string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+callID).Err(); err != nil {
		return fmt.Errorf("registry: redis del: %w", err)
	}
	return nil
}
