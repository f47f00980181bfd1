package cache

import (
	"context"
	"time"
)

// BytesCache — минимальный kv-кэш. ok=false означает промах, а не ошибку.
type BytesCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
