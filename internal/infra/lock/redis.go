package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned when releasing a lock that expired or was taken
// over by another holder.
var ErrLockNotHeld = errors.New("cycle lock not held")

// Deletes the key only if it still carries our value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares the cycle lock between replicas with SET NX and a TTL.
type RedisLocker struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	value := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, l.key, value, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis SETNX %s: %w", l.key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	return func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, value).Int()
		if err != nil {
			return fmt.Errorf("redis release %s: %w", l.key, err)
		}
		if deleted == 0 {
			return ErrLockNotHeld
		}
		return nil
	}, true, nil
}
