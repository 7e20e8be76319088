// Package polymarket fetches market listings from the Polymarket CLOB API.
package polymarket

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
const SiteName = "polymarket"

// Client is the REST client for the Polymarket CLOB markets endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Polymarket client.
//
// baseURL is the API root, e.g. "https://clob.polymarket.com". An empty proxy
// means direct connections.
func NewClient(baseURL, proxy string, timeout time.Duration) (*Client, error) {
	httpClient, err := platform.NewHTTPClient(proxy, timeout)
	if err != nil {
		return nil, fmt.Errorf("polymarket: %w", err)
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

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket: get markets: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		// Some deployments wrap the list in a data envelope.
		var envelope struct {
			Data []json.RawMessage `json:"data"`
		}
		if err2 := json.Unmarshal(body, &envelope); err2 != nil || envelope.Data == nil {
			return nil, fmt.Errorf("polymarket: decode markets: %w", err)
		}
		items = envelope.Data
	}

	markets := make([]domain.Market, 0, len(items))
	for _, raw := range items {
		var item APIMarket
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("polymarket: decode market item: %w", err)
		}
		markets = append(markets, toMarket(&item, raw))
	}

	return markets, nil
}

// toMarket maps one API item onto the shared market shape. The ID falls back
// to the title when the item carries no usable identifier, and the URL falls
// back to the public market page.
func toMarket(item *APIMarket, raw json.RawMessage) domain.Market {
	id := item.identity()
	title := item.title()

	link := item.URL
	if link == "" && id != "" {
		link = "https://polymarket.com/market/" + id
	}
	if id == "" {
		id = title
	}

	return domain.Market{
		Site:       SiteName,
		ID:         id,
		Title:      title,
		Price:      item.price(),
		URL:        link,
		Additional: map[string]any{"raw": raw},
	}
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := platform.CheckStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
