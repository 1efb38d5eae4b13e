package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// DefaultTTL is how long a generated ladder is re-served.
const DefaultTTL = 10 * time.Minute

type Config struct {
	Backend string
	Prefix  string
}

// NewExactCache picks the backend named by cfg and wraps it with logging and
// metrics. Unknown backends, and redis without a client, fall back to the
// in-process map.
func NewExactCache(cfg Config, redisClient *redis.Client) ExactCache {
	var inner ExactCache
	switch {
	case cfg.Backend == BackendRedis && redisClient != nil:
		inner = NewRedisExactCache(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
		})
	case cfg.Backend == BackendNone:
		inner = NoopExactCache{}
	default:
		inner = NewMemoryExactCache()
	}
	return NewLoggingExactCache(inner)
}
