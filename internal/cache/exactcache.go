package cache

import (
	"context"
	"fmt"
	"time"
)

// ExactCacheKey addresses one generation result. Hash is sha256 over the
// normalized request settings; ModelID and VersionID scope the entry so a
// model switch or deploy never serves stale ladders.
type ExactCacheKey struct {
	VersionID string
	ModelID   string
	Hash      string
}

// String converts the structured key into the final string used in Redis/map.
func (k ExactCacheKey) String() string {
	// gen:<VERSION_ID>:<MODEL_ID>:<HASH_HEX>
	return fmt.Sprintf("gen:%s:%s:%s", k.VersionID, k.ModelID, k.Hash)
}

// ExactCache is the content-addressed store used by the generator.
// Implementations: MemoryExactCache (default), RedisExactCache (shared),
// NoopExactCache (disabled). All are safe for concurrent use.
type ExactCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
