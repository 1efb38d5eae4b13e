package cache

import (
	"context"
	"time"
)

// NoopExactCache never stores anything; every Get is a miss.
type NoopExactCache struct{}

func (NoopExactCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopExactCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NoopExactCache) Delete(context.Context, string) error {
	return nil
}
