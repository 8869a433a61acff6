package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "shift-planner:lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds locks as SET NX keys with an expiry, so a crashed run frees its lock after ttl
type RedisLocker struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// RedisOptions are the connection settings for the lock server
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisLocker connects and pings the server
func NewRedisLocker(opts RedisOptions, logger *zap.Logger) (*RedisLocker, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to redis", zap.String("addr", opts.Addr))
	return &RedisLocker{rdb: rdb, logger: logger}, nil
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	r.logger.Debug("Lock acquired", zap.String("key", key), zap.Duration("ttl", ttl))

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, r.rdb, []string{keyPrefix + key}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		if n == 0 {
			r.logger.Warn("Lock expired before release", zap.String("key", key))
		}
		return nil
	}, nil
}

func (r *RedisLocker) Close() error {
	return r.rdb.Close()
}
