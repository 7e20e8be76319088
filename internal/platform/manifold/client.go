// Package manifold fetches market listings from the Manifold Markets API.
package manifold

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/platform"
)

// SiteName is the identifier stamped on every market from this client.
const SiteName = "manifold"

// Client is the REST client for the Manifold v0 API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIMarket represents a lite market as returned by GET /api/v0/markets.
type APIMarket struct {
	ID              string   `json:"id"`
	Question        string   `json:"question"`
	Slug            string   `json:"slug"`
	CreatorUsername string   `json:"creatorUsername"`
	Probability     *float64 `json:"probability"`
}

// NewClient creates a new Manifold client.
//
// baseURL is the site root, e.g. "https://manifold.markets". An empty proxy
// means direct connections.
func NewClient(baseURL, proxy string, timeout time.Duration) (*Client, error) {
	httpClient, err := platform.NewHTTPClient(proxy, timeout)
	if err != nil {
		return nil, fmt.Errorf("manifold: %w", err)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// Site returns the site identifier for this client.
func (c *Client) Site() string { return SiteName }

// FetchMarkets returns up to limit market listings.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v0/markets?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("manifold: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("manifold: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("manifold: read response: %w", err)
	}
	if err := platform.CheckStatus(resp.StatusCode, body); err != nil {
		return nil, fmt.Errorf("manifold: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("manifold: decode markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(items))
	for _, raw := range items {
		var item APIMarket
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("manifold: decode market item: %w", err)
		}
		markets = append(markets, toMarket(&item, raw))
	}

	return markets, nil
}

// toMarket maps one API item onto the shared market shape. The slug stands
// in for a missing question, and the listing URL is only derivable when the
// slug is present.
func toMarket(item *APIMarket, raw json.RawMessage) domain.Market {
	title := item.Question
	if title == "" {
		title = item.Slug
	}

	var link string
	if item.Slug != "" {
		link = fmt.Sprintf("https://manifold.markets/%s/%s", item.CreatorUsername, item.Slug)
	}

	var price *float64
	if item.Probability != nil {
		v := *item.Probability
		price = &v
	}

	return domain.Market{
		Site:       SiteName,
		ID:         item.ID,
		Title:      title,
		Price:      price,
		URL:        link,
		Additional: map[string]any{"raw": raw},
	}
}
