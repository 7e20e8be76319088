// Package pipeline coordinates a collection run: concurrent site fetches,
// unification, export, and the optional persistence stages.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/metrics"
)

// Fetcher retrieves market listings from one site.
type Fetcher interface {
	Site() string
	FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error)
}

// Collector fans out to all configured site fetchers concurrently and
// concatenates their results in the fetcher registration order, so the same
// inputs always produce the same market sequence.
type Collector struct {
	fetchers   []Fetcher
	limiter    domain.RateLimiter // nil when rate limiting is disabled
	ratePerMin int
	logger     *slog.Logger
}

// NewCollector creates a Collector over the given fetchers. limiter may be
// nil, in which case fetches are never throttled.
func NewCollector(fetchers []Fetcher, limiter domain.RateLimiter, ratePerMin int, logger *slog.Logger) *Collector {
	return &Collector{
		fetchers:   fetchers,
		limiter:    limiter,
		ratePerMin: ratePerMin,
		logger:     logger,
	}
}

// Collect fetches up to limit markets from every site in parallel. A failing
// site is logged and recorded but does not abort the run; Collect only
// returns an error when the context is cancelled or every site failed.
func (c *Collector) Collect(ctx context.Context, limit int, rec *metrics.Recorder) ([]domain.Market, error) {
	results := make([][]domain.Market, len(c.fetchers))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range c.fetchers {
		g.Go(func() error {
			site := f.Site()

			if ok, err := c.allow(ctx, site); err != nil {
				c.logger.Warn("rate limiter unavailable, proceeding",
					slog.String("site", site),
					slog.String("error", err.Error()),
				)
			} else if !ok {
				err := fmt.Errorf("%w: site %s", domain.ErrRateLimited, site)
				c.logger.Warn("site fetch skipped", slog.String("site", site), slog.String("error", err.Error()))
				rec.Error(site+"_fetch", err)
				return nil
			}

			markets, err := f.FetchMarkets(ctx, limit)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("site fetch failed",
					slog.String("site", site),
					slog.String("error", err.Error()),
				)
				rec.Error(site+"_fetch", err)
				return nil
			}

			c.logger.Info("site fetch complete",
				slog.String("site", site),
				slog.Int("markets", len(markets)),
			)
			rec.MarketsCollected(site, len(markets))
			results[i] = markets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect markets: %w", err)
	}

	var all []domain.Market
	for _, batch := range results {
		all = append(all, batch...)
	}

	if len(all) == 0 && len(c.fetchers) > 0 && len(rec.Summary().Errors) == len(c.fetchers) {
		return nil, fmt.Errorf("%w: all %d sites failed", domain.ErrSiteFetch, len(c.fetchers))
	}

	return all, nil
}

// allow consults the rate limiter for one site fetch. With no limiter
// configured every fetch is allowed.
func (c *Collector) allow(ctx context.Context, site string) (bool, error) {
	if c.limiter == nil || c.ratePerMin <= 0 {
		return true, nil
	}
	return c.limiter.Allow(ctx, "fetch:"+site, c.ratePerMin, time.Minute)
}
