package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/rag"
)

// ProductStore defines what the product handler needs from the storage
// layer. It is declared locally so the handler package does not depend on the
// concrete postgres implementation.
type ProductStore interface {
	ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.UnifiedProduct, error)
	CountProducts(ctx context.Context) (int64, error)
}

// Searcher runs similarity search over the indexed products. *rag.Index
// satisfies this.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]rag.Result, error)
}

// ProductHandler serves unified product endpoints.
type ProductHandler struct {
	store    ProductStore
	searcher Searcher
	logger   *slog.Logger
}

// NewProductHandler creates a ProductHandler. The searcher may be nil when no
// index is configured; the search endpoint then reports 503.
func NewProductHandler(store ProductStore, searcher Searcher, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		store:    store,
		searcher: searcher,
		logger:   logger,
	}
}

// listProductsResponse wraps the list endpoint output with metadata.
type listProductsResponse struct {
	Products []domain.UnifiedProduct `json:"products"`
	Total    int64                   `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
}

// ListProducts returns recently unified products with pagination.
// GET /api/products?limit=50&offset=0
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "product storage not configured")
		return
	}
	opts := parseListOpts(r)

	products, err := h.store.ListRecent(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list products failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	total, err := h.store.CountProducts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count products failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count products")
		return
	}

	writeJSON(w, http.StatusOK, listProductsResponse{
		Products: products,
		Total:    total,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

// searchResponse wraps the search results with the query that produced them.
type searchResponse struct {
	Query   string       `json:"query"`
	Results []rag.Result `json:"results"`
}

// SearchProducts runs a similarity search over the indexed products.
// GET /api/products/search?q=trump&k=5
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "search index not configured")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	topK := 5
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 50 {
			writeError(w, http.StatusBadRequest, "k must be an integer in [1,50]")
			return
		}
		topK = n
	}

	results, err := h.searcher.Search(r.Context(), query, topK)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyIndex) {
			writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: []rag.Result{}})
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}
