// Package rag provides embedding-backed search and chat over unified
// products, with a JSON file cache so the index survives restarts.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// Embedder turns texts into embedding vectors. *llm.Client satisfies this.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// entry pairs one indexed product with its embedding.
type entry struct {
	Product domain.UnifiedProduct `json:"product"`
	Text    string                `json:"text"`
}

// cacheFile is the on-disk layout of the embeddings cache.
type cacheFile struct {
	Embeddings [][]float64 `json:"embeddings"`
	Products   []entry     `json:"products"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Index is an in-memory vector index over unified products. Safe for
// concurrent use.
type Index struct {
	mu        sync.RWMutex
	embedder  Embedder
	cachePath string
	logger    *slog.Logger

	entries []entry
	vectors [][]float64
}

// NewIndex creates an Index and loads the cache file at cachePath when one
// exists. A corrupt or missing cache is not an error; the index just starts
// empty.
func NewIndex(embedder Embedder, cachePath string, logger *slog.Logger) *Index {
	idx := &Index{
		embedder:  embedder,
		cachePath: cachePath,
		logger:    logger,
	}
	idx.load()
	return idx
}

func (idx *Index) load() {
	data, err := os.ReadFile(idx.cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			idx.logger.Warn("embeddings cache unreadable", slog.String("error", err.Error()))
		}
		return
	}

	var cache cacheFile
	if err := json.Unmarshal(data, &cache); err != nil {
		idx.logger.Warn("embeddings cache corrupt, starting empty", slog.String("error", err.Error()))
		return
	}
	if len(cache.Embeddings) != len(cache.Products) {
		idx.logger.Warn("embeddings cache inconsistent, starting empty",
			slog.Int("embeddings", len(cache.Embeddings)),
			slog.Int("products", len(cache.Products)),
		)
		return
	}

	idx.entries = cache.Products
	idx.vectors = cache.Embeddings
	idx.logger.Info("loaded cached product embeddings", slog.Int("products", len(idx.entries)))
}

func (idx *Index) save() error {
	if dir := filepath.Dir(idx.cachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("rag: create cache dir: %w", err)
		}
	}

	data, err := json.Marshal(cacheFile{
		Embeddings: idx.vectors,
		Products:   idx.entries,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("rag: marshal cache: %w", err)
	}
	if err := os.WriteFile(idx.cachePath, data, 0o644); err != nil {
		return fmt.Errorf("rag: write cache: %w", err)
	}
	return nil
}

// AddProducts embeds the given products and appends them to the index, then
// persists the cache file.
func (idx *Index) AddProducts(ctx context.Context, products []domain.UnifiedProduct) error {
	if len(products) == 0 {
		return nil
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = productText(p)
	}

	vectors, err := idx.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("rag: embed %d products: %w", len(products), err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, p := range products {
		idx.entries = append(idx.entries, entry{Product: p, Text: texts[i]})
		idx.vectors = append(idx.vectors, vectors[i])
	}

	if err := idx.save(); err != nil {
		idx.logger.Error("save embeddings cache failed", slog.String("error", err.Error()))
	}
	idx.logger.Info("products indexed", slog.Int("total", len(idx.entries)))
	return nil
}

// Result is one search hit.
type Result struct {
	Product    domain.UnifiedProduct `json:"product"`
	Text       string                `json:"text"`
	Similarity float64               `json:"similarity_score"`
}

// Search returns the topK products most similar to the query by cosine
// similarity. It returns domain.ErrEmptyIndex when nothing has been indexed.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	idx.mu.RLock()
	empty := len(idx.entries) == 0
	idx.mu.RUnlock()
	if empty {
		return nil, domain.ErrEmptyIndex
	}
	if topK <= 0 {
		topK = 5
	}

	vectors, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}
	queryVec := vectors[0]

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]Result, 0, len(idx.entries))
	for i, e := range idx.entries {
		results = append(results, Result{
			Product:    e.Product,
			Text:       e.Text,
			Similarity: cosine(queryVec, idx.vectors[i]),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Stats summarizes the indexed products.
type Stats struct {
	TotalProducts     int      `json:"total_products"`
	TotalMarkets      int      `json:"total_markets"`
	SitesCovered      []string `json:"sites_covered,omitempty"`
	AverageConfidence float64  `json:"average_confidence"`
}

// Stats returns counts over the indexed products. SitesCovered is sorted.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return Stats{}
	}

	totalMarkets := 0
	siteSet := make(map[string]struct{})
	var confidenceSum float64
	for _, e := range idx.entries {
		totalMarkets += len(e.Product.Members)
		for _, m := range e.Product.Members {
			siteSet[m.Site] = struct{}{}
		}
		confidenceSum += e.Product.AverageConfidence()
	}

	sites := make([]string, 0, len(siteSet))
	for site := range siteSet {
		sites = append(sites, site)
	}
	sort.Strings(sites)

	return Stats{
		TotalProducts:     len(idx.entries),
		TotalMarkets:      totalMarkets,
		SitesCovered:      sites,
		AverageConfidence: confidenceSum / float64(len(idx.entries)),
	}
}

// productText builds the text representation embedded for one product.
func productText(p domain.UnifiedProduct) string {
	parts := []string{"Product: " + p.UnifiedTitle}
	for i, m := range p.Members {
		parts = append(parts, fmt.Sprintf("Available on %s: %s", m.Site, m.Title))
		if m.Price != nil {
			parts = append(parts, "Price: "+strconv.FormatFloat(*m.Price, 'f', 4, 64))
		}
		if i < len(p.ConfidenceScores) {
			parts = append(parts, "Confidence: "+strconv.FormatFloat(p.ConfidenceScores[i], 'f', 3, 64))
		}
	}
	return strings.Join(parts, " | ")
}

// cosine returns the cosine similarity of two vectors, or 0 when either has
// zero magnitude or the lengths differ.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
