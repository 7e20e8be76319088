// Package agent delegates market unification to an LLM: one step normalizes
// the collected batch, a second groups cross-site duplicates. It implements
// the same Unifier contract as the deterministic matcher so callers can fall
// back when a step fails.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/llm"
)

// Chatter is the LLM surface the pipeline needs. *llm.Client satisfies this.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Pipeline is the LLM-backed Unifier.
type Pipeline struct {
	llm    Chatter
	logger *slog.Logger
}

var _ domain.Unifier = (*Pipeline)(nil)

// NewPipeline creates a Pipeline over the given chat client.
func NewPipeline(client Chatter, logger *slog.Logger) *Pipeline {
	return &Pipeline{llm: client, logger: logger}
}

// Unify runs the two LLM steps and maps the result back onto the original
// markets. Any step failure returns an error without partial output.
func (p *Pipeline) Unify(ctx context.Context, markets []domain.Market) ([]domain.UnifiedProduct, error) {
	if len(markets) == 0 {
		return nil, nil
	}

	collected, err := p.collectStep(ctx, markets)
	if err != nil {
		return nil, fmt.Errorf("agent: collect step: %w", err)
	}
	p.logger.Info("agent collect step complete", slog.Int("listings", len(collected)))

	groups, err := p.identifyStep(ctx, collected)
	if err != nil {
		return nil, fmt.Errorf("agent: identify step: %w", err)
	}
	p.logger.Info("agent identify step complete", slog.Int("groups", len(groups)))

	return p.buildProducts(markets, groups)
}

// collectStep asks the model to normalize the raw batch into uniform
// listings.
func (p *Pipeline) collectStep(ctx context.Context, markets []domain.Market) ([]collectedMarket, error) {
	batch, err := json.Marshal(markets)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	reply, err := p.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: collectorSystem},
		{Role: "user", Content: collectorInstructions + string(batch)},
	})
	if err != nil {
		return nil, err
	}
	return parseCollected(reply)
}

// identifyStep asks the model to group the normalized listings.
func (p *Pipeline) identifyStep(ctx context.Context, collected []collectedMarket) ([]identifiedProduct, error) {
	batch, err := json.Marshal(collected)
	if err != nil {
		return nil, fmt.Errorf("marshal listings: %w", err)
	}

	reply, err := p.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: identifierSystem},
		{Role: "user", Content: identifierInstructions + string(batch)},
	})
	if err != nil {
		return nil, err
	}
	return parseIdentified(reply)
}

// buildProducts maps the identified groups back onto the original markets so
// URLs and source metadata survive the round trip through the model. A
// member the model invented fails the whole run.
func (p *Pipeline) buildProducts(markets []domain.Market, groups []identifiedProduct) ([]domain.UnifiedProduct, error) {
	byKey := make(map[string]domain.Market, len(markets))
	for _, m := range markets {
		byKey[m.Site+"\x00"+m.ID] = m
	}

	products := make([]domain.UnifiedProduct, 0, len(groups))
	for _, g := range groups {
		product := domain.UnifiedProduct{
			UnifiedTitle:     g.UnifiedTitle,
			Members:          make([]domain.Market, 0, len(g.Members)),
			ConfidenceScores: make([]float64, 0, len(g.Members)),
		}
		for _, im := range g.Members {
			m, ok := byKey[im.Site+"\x00"+im.ID]
			if !ok {
				return nil, fmt.Errorf("agent: group %q references unknown market %s/%s", g.UnifiedTitle, im.Site, im.ID)
			}
			product.Members = append(product.Members, m)
			product.ConfidenceScores = append(product.ConfidenceScores, im.Confidence)
		}
		products = append(products, product)
	}
	return products, nil
}

// WithFallback wraps a primary Unifier with a fallback used when the primary
// fails. The swap is logged, never silent.
type WithFallback struct {
	Primary  domain.Unifier
	Fallback domain.Unifier
	Logger   *slog.Logger
}

var _ domain.Unifier = WithFallback{}

// Unify tries the primary Unifier and falls back on any error.
func (w WithFallback) Unify(ctx context.Context, markets []domain.Market) ([]domain.UnifiedProduct, error) {
	products, err := w.Primary.Unify(ctx, markets)
	if err == nil {
		return products, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	w.Logger.Warn("primary unifier failed, using fallback", slog.String("error", err.Error()))
	return w.Fallback.Unify(ctx, markets)
}
