package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/metrics"
)

type stubFetcher struct {
	site    string
	markets []domain.Market
	err     error
	delay   time.Duration
}

func (s *stubFetcher) Site() string { return s.site }

func (s *stubFetcher) FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.markets, s.err
}

type stubLimiter struct {
	denied map[string]bool
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return !s.denied[key], nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mkMarkets(site string, n int) []domain.Market {
	out := make([]domain.Market, n)
	for i := range out {
		out[i] = domain.Market{Site: site, ID: fmt.Sprintf("%s-%d", site, i), Title: fmt.Sprintf("market %d", i)}
	}
	return out
}

func TestCollectFixedSiteOrder(t *testing.T) {
	// The slow first fetcher finishes last; its markets must still come first.
	c := NewCollector([]Fetcher{
		&stubFetcher{site: "polymarket", markets: mkMarkets("polymarket", 2), delay: 30 * time.Millisecond},
		&stubFetcher{site: "manifold", markets: mkMarkets("manifold", 1)},
		&stubFetcher{site: "predictit", markets: mkMarkets("predictit", 1)},
	}, nil, 0, discard())

	got, err := c.Collect(context.Background(), 100, metrics.NewRecorder())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	wantSites := []string{"polymarket", "polymarket", "manifold", "predictit"}
	if len(got) != len(wantSites) {
		t.Fatalf("got %d markets, want %d", len(got), len(wantSites))
	}
	for i, site := range wantSites {
		if got[i].Site != site {
			t.Errorf("market[%d].Site = %q, want %q", i, got[i].Site, site)
		}
	}
}

func TestCollectToleratesOneFailingSite(t *testing.T) {
	c := NewCollector([]Fetcher{
		&stubFetcher{site: "polymarket", markets: mkMarkets("polymarket", 3)},
		&stubFetcher{site: "manifold", err: errors.New("boom")},
	}, nil, 0, discard())

	rec := metrics.NewRecorder()
	got, err := c.Collect(context.Background(), 100, rec)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d markets, want 3 from the healthy site", len(got))
	}
	s := rec.Summary()
	if s.ErrorCount != 1 || s.Errors[0].Context != "manifold_fetch" {
		t.Errorf("errors = %+v, want one manifold_fetch entry", s.Errors)
	}
}

func TestCollectAllSitesFailed(t *testing.T) {
	c := NewCollector([]Fetcher{
		&stubFetcher{site: "polymarket", err: errors.New("down")},
		&stubFetcher{site: "manifold", err: errors.New("down")},
	}, nil, 0, discard())

	_, err := c.Collect(context.Background(), 100, metrics.NewRecorder())
	if !errors.Is(err, domain.ErrSiteFetch) {
		t.Errorf("err = %v, want ErrSiteFetch when every site fails", err)
	}
}

func TestCollectRateLimiterSkipsSite(t *testing.T) {
	c := NewCollector([]Fetcher{
		&stubFetcher{site: "polymarket", markets: mkMarkets("polymarket", 2)},
		&stubFetcher{site: "manifold", markets: mkMarkets("manifold", 2)},
	}, &stubLimiter{denied: map[string]bool{"fetch:manifold": true}}, 60, discard())

	rec := metrics.NewRecorder()
	got, err := c.Collect(context.Background(), 100, rec)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d markets, want only the allowed site's 2", len(got))
	}
	s := rec.Summary()
	if s.ErrorCount != 1 || s.Errors[0].Context != "manifold_fetch" {
		t.Errorf("errors = %+v, want a manifold_fetch rate-limit entry", s.Errors)
	}
}

func TestCollectEmptyFetcherList(t *testing.T) {
	c := NewCollector(nil, nil, 0, discard())
	got, err := c.Collect(context.Background(), 100, metrics.NewRecorder())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d markets, want 0", len(got))
	}
}
