package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		ChatModel:      "test-chat",
		EmbeddingModel: "test-embed",
		Timeout:        5 * time.Second,
		MaxRetries:     maxRetries,
	})
	c.backoff = time.Millisecond
	return c
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-chat" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []ChatChoice{{Message: Message{Role: "assistant", Content: "hello back"}}},
		})
	}, 0)

	got, err := c.Chat(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "hello back" {
		t.Errorf("Chat = %q", got)
	}
}

func TestChatRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []ChatChoice{{Message: Message{Content: "ok"}}},
		})
	}, 3)

	got, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "ok" || calls.Load() != 3 {
		t.Errorf("got %q after %d calls, want ok after 3", got, calls.Load())
	}
}

func TestChatExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, 2)

	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3 (1 + 2 retries)", calls.Load())
	}
}

func TestChatDoesNotRetry4xx(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, 3)

	if _, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want no retries on 400", calls.Load())
	}
}

func TestChatNoAPIKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://localhost:0", ChatModel: "m"})
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, domain.ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestEmbed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "test-embed" || len(req.Input) != 2 {
			t.Errorf("request = %+v", req)
		}
		// Deliberately out of order; the client must reorder by index.
		json.NewEncoder(w).Encode(EmbeddingsResponse{
			Data: []Embedding{
				{Index: 1, Embedding: []float64{0.3, 0.4}},
				{Index: 0, Embedding: []float64{0.1, 0.2}},
			},
		})
	}, 0)

	vecs, err := c.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || vecs[0][0] != 0.1 || vecs[1][0] != 0.3 {
		t.Errorf("vecs = %v, want index-ordered vectors", vecs)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EmbeddingsResponse{
			Data: []Embedding{{Index: 0, Embedding: []float64{0.1}}},
		})
	}, 0)

	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error on vector count mismatch")
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := NewClient(Config{APIKey: "k"})
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("Embed(nil) = %v, %v; want nil, nil without a network call", vecs, err)
	}
}
