package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// MarketCache implements domain.MarketCache with JSON-serialized listings.
//
// Key schema:
//
//	mf:market:{site}:{id} - JSON-encoded Market
type MarketCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ domain.MarketCache = (*MarketCache)(nil)

// NewMarketCache creates a MarketCache backed by the given Client. Entries
// expire after ttl; a zero ttl defaults to 30 minutes.
func NewMarketCache(c *Client, ttl time.Duration) *MarketCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MarketCache{rdb: c.Underlying(), ttl: ttl}
}

func marketKey(site, id string) string {
	return "mf:market:" + site + ":" + id
}

// Set stores one market listing with the cache TTL.
func (mc *MarketCache) Set(ctx context.Context, market domain.Market) error {
	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("redis: marshal market %s/%s: %w", market.Site, market.ID, err)
	}
	if err := mc.rdb.Set(ctx, marketKey(market.Site, market.ID), data, mc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set market %s/%s: %w", market.Site, market.ID, err)
	}
	return nil
}

// SetBatch stores a batch of listings in a single pipelined round trip.
func (mc *MarketCache) SetBatch(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	pipe := mc.rdb.Pipeline()
	for _, m := range markets {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("redis: marshal market %s/%s: %w", m.Site, m.ID, err)
		}
		pipe.Set(ctx, marketKey(m.Site, m.ID), data, mc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set market batch: %w", err)
	}
	return nil
}

// Get retrieves a cached listing. It returns domain.ErrNotFound when the key
// does not exist or has expired.
func (mc *MarketCache) Get(ctx context.Context, site, id string) (domain.Market, error) {
	data, err := mc.rdb.Get(ctx, marketKey(site, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market %s/%s: %w", site, id, err)
	}

	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return domain.Market{}, fmt.Errorf("redis: unmarshal market %s/%s: %w", site, id, err)
	}
	return market, nil
}
