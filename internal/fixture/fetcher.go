package fixture

import (
	"context"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// Fetcher serves one site's share of the sample data through the normal
// collection path, so test mode exercises the same collector and matcher as
// a live run.
type Fetcher struct {
	site string
}

// NewFetcher creates a Fetcher for the given site name.
func NewFetcher(site string) *Fetcher {
	return &Fetcher{site: site}
}

// Site returns the site name this fetcher stands in for.
func (f *Fetcher) Site() string {
	return f.site
}

// FetchMarkets returns the sample markets for this site, truncated to limit.
func (f *Fetcher) FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	var out []domain.Market
	for _, m := range SampleMarkets() {
		if m.Site != f.site {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
