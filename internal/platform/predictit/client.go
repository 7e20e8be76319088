// Package predictit fetches market listings from the public PredictIt
// market-data API.
package predictit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/platform"
)

// SiteName is the identifier stamped on every market from this client.
const SiteName = "predictit"

// Client is the REST client for the PredictIt market-data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIMarket represents one market entry of GET /api/marketdata/all.
type APIMarket struct {
	ID        json.Number   `json:"id"`
	Name      string        `json:"name"`
	URL       string        `json:"url"`
	Contracts []APIContract `json:"contracts"`
}

// APIContract is a single outcome contract inside a market entry.
type APIContract struct {
	ID             json.Number `json:"id"`
	Name           string      `json:"name"`
	LastTradePrice *float64    `json:"lastTradePrice"`
}

// NewClient creates a new PredictIt client.
//
// baseURL is the site root, e.g. "https://www.predictit.org". An empty proxy
// means direct connections.
func NewClient(baseURL, proxy string, timeout time.Duration) (*Client, error) {
	httpClient, err := platform.NewHTTPClient(proxy, timeout)
	if err != nil {
		return nil, fmt.Errorf("predictit: %w", err)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// Site returns the site identifier for this client.
func (c *Client) Site() string { return SiteName }

// FetchMarkets returns up to limit market listings. The API has no paging
// parameter, so the full feed is fetched and truncated client-side.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/marketdata/all", nil)
	if err != nil {
		return nil, fmt.Errorf("predictit: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictit: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("predictit: read response: %w", err)
	}
	if err := platform.CheckStatus(resp.StatusCode, body); err != nil {
		return nil, fmt.Errorf("predictit: %w", err)
	}

	var feed struct {
		Markets []json.RawMessage `json:"markets"`
	}
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("predictit: decode feed: %w", err)
	}

	items := feed.Markets
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	markets := make([]domain.Market, 0, len(items))
	for _, raw := range items {
		var item APIMarket
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("predictit: decode market item: %w", err)
		}
		markets = append(markets, toMarket(&item, raw))
	}

	return markets, nil
}

// toMarket maps one market entry onto the shared market shape. The price is
// the highest lastTradePrice across the market's contracts, matching the
// most-likely outcome.
func toMarket(item *APIMarket, raw json.RawMessage) domain.Market {
	id := item.ID.String()

	link := item.URL
	if link == "" {
		link = "https://www.predictit.org/markets/detail/" + id
	}

	var price *float64
	for _, c := range item.Contracts {
		if c.LastTradePrice == nil {
			continue
		}
		if price == nil || *c.LastTradePrice > *price {
			v := *c.LastTradePrice
			price = &v
		}
	}

	return domain.Market{
		Site:       SiteName,
		ID:         id,
		Title:      item.Name,
		Price:      price,
		URL:        link,
		Additional: map[string]any{"raw": raw},
	}
}
