package cache

import (
	"context"
	"time"
)

// SeenGuard is the fast-path guard in front of the database dedup checks.
// A canonical link marked seen was fully processed by a recent ingest run,
// so the pipeline can skip it without touching the store or the AI service.
type SeenGuard interface {
	Seen(ctx context.Context, hash string) (bool, error)
	MarkSeen(ctx context.Context, hash string, ttl time.Duration) error
	Clear(ctx context.Context) error
	Close() error
}
