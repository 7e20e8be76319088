package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/rag"
)

type stubStore struct {
	products []domain.UnifiedProduct
	count    int64
	err      error
	gotOpts  domain.ListOpts
}

func (s *stubStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.UnifiedProduct, error) {
	s.gotOpts = opts
	return s.products, s.err
}

func (s *stubStore) CountProducts(ctx context.Context) (int64, error) {
	return s.count, s.err
}

type stubSearcher struct {
	results []rag.Result
	err     error
	gotK    int
}

func (s *stubSearcher) Search(ctx context.Context, query string, topK int) ([]rag.Result, error) {
	s.gotK = topK
	return s.results, s.err
}

type stubChatter struct {
	reply string
	err   error
}

func (s *stubChatter) Chat(ctx context.Context, query string) (string, error) {
	return s.reply, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, resp.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp := httptest.NewRecorder()

	NewHealthHandler().HealthCheck(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestListProducts(t *testing.T) {
	price := 0.45
	store := &stubStore{
		products: []domain.UnifiedProduct{
			{
				UnifiedTitle:     "Will X happen?",
				Members:          []domain.Market{{Site: "polymarket", ID: "p1", Title: "Will X happen?", Price: &price}},
				ConfidenceScores: []float64{1.0},
			},
		},
		count: 12,
	}
	h := NewProductHandler(store, nil, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/products?limit=5&offset=10", nil)
	resp := httptest.NewRecorder()
	h.ListProducts(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var body listProductsResponse
	decodeBody(t, resp, &body)
	if len(body.Products) != 1 || body.Total != 12 || body.Limit != 5 || body.Offset != 10 {
		t.Errorf("body = %+v", body)
	}
	if store.gotOpts.Limit != 5 || store.gotOpts.Offset != 10 {
		t.Errorf("opts = %+v", store.gotOpts)
	}
}

func TestListProductsStoreError(t *testing.T) {
	h := NewProductHandler(&stubStore{err: errors.New("db down")}, nil, discard())

	resp := httptest.NewRecorder()
	h.ListProducts(resp, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.Code)
	}
}

func TestListProductsNoStore(t *testing.T) {
	h := NewProductHandler(nil, nil, discard())

	resp := httptest.NewRecorder()
	h.ListProducts(resp, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.Code)
	}
}

func TestSearchProducts(t *testing.T) {
	searcher := &stubSearcher{
		results: []rag.Result{{Text: "Product: X", Similarity: 0.91}},
	}
	h := NewProductHandler(&stubStore{}, searcher, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/products/search?q=trump&k=3", nil)
	resp := httptest.NewRecorder()
	h.SearchProducts(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	if searcher.gotK != 3 {
		t.Errorf("topK = %d, want 3", searcher.gotK)
	}
	var body searchResponse
	decodeBody(t, resp, &body)
	if body.Query != "trump" || len(body.Results) != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestSearchProductsValidation(t *testing.T) {
	h := NewProductHandler(&stubStore{}, &stubSearcher{}, discard())

	tests := []struct {
		name string
		url  string
	}{
		{"missing q", "/api/products/search"},
		{"bad k", "/api/products/search?q=x&k=zero"},
		{"k too large", "/api/products/search?q=x&k=51"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			h.SearchProducts(resp, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if resp.Code != http.StatusBadRequest {
				t.Errorf("status = %d", resp.Code)
			}
		})
	}
}

func TestSearchProductsEmptyIndex(t *testing.T) {
	h := NewProductHandler(&stubStore{}, &stubSearcher{err: domain.ErrEmptyIndex}, discard())

	resp := httptest.NewRecorder()
	h.SearchProducts(resp, httptest.NewRequest(http.MethodGet, "/api/products/search?q=x", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var body searchResponse
	decodeBody(t, resp, &body)
	if len(body.Results) != 0 {
		t.Errorf("results = %+v, want empty", body.Results)
	}
}

func TestSearchProductsNoIndex(t *testing.T) {
	h := NewProductHandler(&stubStore{}, nil, discard())

	resp := httptest.NewRecorder()
	h.SearchProducts(resp, httptest.NewRequest(http.MethodGet, "/api/products/search?q=x", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.Code)
	}
}

func TestChat(t *testing.T) {
	h := NewChatHandler(&stubChatter{reply: "Here are some relevant prediction markets:"}, discard())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"query": "trump markets"}`))
	resp := httptest.NewRecorder()
	h.Chat(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var body chatResponse
	decodeBody(t, resp, &body)
	if body.Query != "trump markets" || !strings.Contains(body.Reply, "relevant prediction markets") {
		t.Errorf("body = %+v", body)
	}
}

func TestChatValidation(t *testing.T) {
	h := NewChatHandler(&stubChatter{}, discard())

	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query": "  "}`},
		{"invalid json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			h.Chat(resp, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body)))
			if resp.Code != http.StatusBadRequest {
				t.Errorf("status = %d", resp.Code)
			}
		})
	}
}

func TestChatFailure(t *testing.T) {
	h := NewChatHandler(&stubChatter{err: errors.New("llm down")}, discard())

	resp := httptest.NewRecorder()
	h.Chat(resp, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"query": "x"}`)))

	if resp.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.Code)
	}
}

type stubStats struct{ stats rag.Stats }

func (s stubStats) Stats() rag.Stats { return s.stats }

func TestGetStatus(t *testing.T) {
	started := time.Now().Add(-90 * time.Second)
	h := NewStatusHandler("serve", "local", started, stubStats{rag.Stats{TotalProducts: 3}})

	resp := httptest.NewRecorder()
	h.GetStatus(resp, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var body struct {
		Mode          string     `json:"mode"`
		Pipeline      string     `json:"pipeline"`
		UptimeSeconds int64      `json:"uptime_seconds"`
		Index         *rag.Stats `json:"index"`
	}
	decodeBody(t, resp, &body)
	if body.Mode != "serve" || body.Pipeline != "local" {
		t.Errorf("body = %+v", body)
	}
	if body.UptimeSeconds < 89 {
		t.Errorf("uptime = %d", body.UptimeSeconds)
	}
	if body.Index == nil || body.Index.TotalProducts != 3 {
		t.Errorf("index = %+v", body.Index)
	}
}

func TestGetStatusNoIndex(t *testing.T) {
	h := NewStatusHandler("collect", "agent", time.Now(), nil)

	resp := httptest.NewRecorder()
	h.GetStatus(resp, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var body map[string]any
	decodeBody(t, resp, &body)
	if _, ok := body["index"]; ok {
		t.Errorf("index reported without a configured index: %v", body)
	}
}
