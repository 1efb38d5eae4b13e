package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"notcringe/internal/metrics"
	"notcringe/pkg/logging"
)

// LoggingExactCache wraps an ExactCache with logging + metrics.
type LoggingExactCache struct {
	inner ExactCache
}

// NewLoggingExactCache returns a cache that logs and records metrics.
func NewLoggingExactCache(inner ExactCache) ExactCache {
	return &LoggingExactCache{inner: inner}
}

func (c *LoggingExactCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := c.inner.Get(ctx, key)

	result := "miss"
	switch {
	case err != nil:
		result = "error"
		metrics.CacheMissesTotal.Inc()
	case ok:
		result = "hit"
		metrics.CacheHitsTotal.Inc()
	default:
		metrics.CacheMissesTotal.Inc()
	}

	fields := append(keyFields(key, start), zap.String("cache_result", result)) // hit | miss | error

	if err != nil {
		logging.L(ctx).Error("exact_cache_get", append(fields, zap.Error(err))...)
	} else {
		logging.L(ctx).Debug("exact_cache_get", fields...)
	}

	return value, ok, err
}

func (c *LoggingExactCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, value, ttl)

	fields := append(keyFields(key, start), zap.Duration("ttl", ttl), zap.Int("bytes", len(value)))

	if err != nil {
		logging.L(ctx).Error("exact_cache_set", append(fields, zap.Error(err))...)
	} else {
		logging.L(ctx).Debug("exact_cache_set", fields...)
	}

	return err
}

func (c *LoggingExactCache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := c.inner.Delete(ctx, key)

	if err != nil {
		logging.L(ctx).Error("exact_cache_delete", append(keyFields(key, start), zap.Error(err))...)
	}
	return err
}

func keyFields(key string, start time.Time) []zap.Field {
	fields := []zap.Field{
		zap.String("cache_tier", "exact"),
		zap.String("hash_key", key),
		zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0),
	}
	if parts, ok := parseExactKey(key); ok {
		fields = append(fields,
			zap.String("version_id", parts.versionID),
			zap.String("model_id", parts.modelID),
			zap.String("hash", parts.hash),
		)
	}
	return fields
}

type exactKeyParts struct {
	versionID string
	modelID   string
	hash      string
}

// Expecting: gen:<VERSION_ID>:<MODEL_ID>:<HASH>
// Model ids may themselves contain ':' (e.g. "ft:gpt-4o-mini:org"), so the
// hash is taken from the end.
func parseExactKey(key string) (exactKeyParts, bool) {
	rest, ok := strings.CutPrefix(key, "gen:")
	if !ok {
		return exactKeyParts{}, false
	}
	version, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return exactKeyParts{}, false
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return exactKeyParts{}, false
	}
	return exactKeyParts{
		versionID: version,
		modelID:   rest[:i],
		hash:      rest[i+1:],
	}, true
}
