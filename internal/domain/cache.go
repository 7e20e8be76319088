package domain

import (
	"context"
	"time"
)

// MarketCache holds the most recent listing seen for each (site, id) pair.
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	SetBatch(ctx context.Context, markets []Market) error
	Get(ctx context.Context, site, id string) (Market, error)
}

// RateLimiter bounds the request rate of the site fetchers.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides a distributed lock so that only one collection run
// executes at a time.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
