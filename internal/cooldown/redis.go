package cooldown

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/orderbot/pkg/enums"
	"github.com/redis/go-redis/v9"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CooldownKey(kind string, userID int64) string
}

// RedisStore keeps cooldown timestamps in Redis so they survive restarts.
// Keys expire with the window, so a missing key means the user is allowed.
type RedisStore struct {
	client redisStore
}

// NewRedisStore builds a Redis-backed cooldown store.
func NewRedisStore(client redisStore) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required for cooldown store")
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Last(ctx context.Context, userID int64, kind enums.CooldownKind) (time.Time, bool, error) {
	raw, err := r.client.Get(ctx, r.client.CooldownKey(kind.String(), userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("get cooldown: %w", err)
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cooldown timestamp %q: %w", raw, err)
	}
	return time.Unix(0, nanos), true, nil
}

func (r *RedisStore) Record(ctx context.Context, userID int64, kind enums.CooldownKind, at time.Time, window time.Duration) error {
	key := r.client.CooldownKey(kind.String(), userID)
	if err := r.client.Set(ctx, key, strconv.FormatInt(at.UnixNano(), 10), window); err != nil {
		return fmt.Errorf("set cooldown: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, userID int64) error {
	kinds := enums.CooldownKinds()
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, r.client.CooldownKey(kind.String(), userID))
	}
	if err := r.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("clear cooldowns: %w", err)
	}
	return nil
}
