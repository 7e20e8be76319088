// Package llm is a minimal client for OpenAI-compatible chat-completion and
// embedding APIs (OpenAI, Groq, and self-hosted gateways).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// Config holds connection parameters for the LLM client.
type Config struct {
	// BaseURL is the API root including any version prefix, e.g.
	// "https://api.groq.com/openai/v1".
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	// MaxRetries is the number of retries after the initial attempt for
	// 429/5xx responses and transient network failures.
	MaxRetries int
}

// Client talks to one OpenAI-compatible endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a Client from cfg. The API key may be empty; calls will
// then fail with domain.ErrNoAPIKey so callers can fall back to offline
// behavior.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		backoff:    500 * time.Millisecond,
	}
}

// ChatModel returns the configured chat model name.
func (c *Client) ChatModel() string { return c.cfg.ChatModel }

// Chat sends a chat-completion request and returns the first choice's
// content.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, ChatRequest{
		Model:    c.cfg.ChatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CreateChatCompletion sends a raw chat-completion request.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var out ChatResponse
	if err := c.post(ctx, "/chat/completions", req, &out); err != nil {
		return ChatResponse{}, err
	}
	return out, nil
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp EmbeddingsResponse
	err := c.post(ctx, "/embeddings", EmbeddingsRequest{
		Model: c.cfg.EmbeddingModel,
		Input: texts,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("llm: embeddings returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("llm: embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// post sends body as JSON and decodes the response into out, retrying 429
// and 5xx responses and transient network failures with exponential backoff.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("llm: %s: %w", path, domain.ErrNoAPIKey)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("llm: marshal request: %w", err)
	}
	endpoint := c.cfg.BaseURL + path

	attempts := c.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, c.backoff, attempt-1); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("llm: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("llm: %s: %w", endpoint, err)
			if isRetryable(err) {
				continue
			}
			return lastErr
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("llm: read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("llm: %s: HTTP %d: %s", endpoint, resp.StatusCode, truncate(respBody, 500))
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w: %s", domain.ErrRateLimited, truncate(respBody, 500))
			}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("llm: %s: HTTP %d: %s", endpoint, resp.StatusCode, truncate(respBody, 500))
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("llm: decode response: %w", err)
		}
		return nil
	}

	return lastErr
}

// isRetryable reports whether a network error is worth another attempt.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// sleepBackoff waits base*2^attempt (capped at 5s), honoring ctx.
func sleepBackoff(ctx context.Context, base time.Duration, attempt int) error {
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
