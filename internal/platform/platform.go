// Package platform holds shared plumbing for the per-site API clients in its
// subpackages.
package platform

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// NewHTTPClient builds an http.Client with the given timeout. When proxy is
// non-empty it is parsed as a URL and installed on the transport so all
// requests route through it.
func NewHTTPClient(proxy string, timeout time.Duration) (*http.Client, error) {
	client := &http.Client{Timeout: timeout}
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("platform: parse proxy url: %w", err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	}
	return client, nil
}

// CheckStatus maps a non-2xx HTTP status code to a domain error, keeping the
// response body as context.
func CheckStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrSiteFetch, statusCode, bodyStr)
	}
}
