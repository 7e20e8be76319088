package match

import (
	"context"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// DefaultThreshold is the similarity a title must reach against a cluster's
// anchor to join that cluster.
const DefaultThreshold = 0.78

// cluster accumulates members against a fixed anchor title.
type cluster struct {
	// anchorTitle is the raw title of the first member. It is never
	// recomputed as the cluster grows: clustering stays a single
	// left-to-right pass with no re-clustering step, at the cost of drift
	// when the first member's phrasing is atypical.
	anchorTitle string
	members     []domain.Market
	scores      []float64
}

// Cluster partitions markets into unified products with a greedy first-fit
// pass: each record joins the first existing cluster (in creation order)
// whose anchor title scores at or above threshold, or opens a new cluster
// with score 1.0.
//
// First-fit, not best-fit: a later cluster scoring higher is never
// considered. The resulting O(n*k) pass is order-sensitive — permuting the
// input can change the grouping — and members are only guaranteed similar
// to the anchor, not to each other. Both are accepted behavior, not bugs.
//
// The threshold is used as given: a value above 1 makes every product a
// singleton, a value at or below 0 merges everything into the first
// cluster. Output is exactly reproducible for a given input sequence and
// threshold.
func Cluster(markets []domain.Market, threshold float64) []domain.UnifiedProduct {
	var clusters []*cluster
	for _, m := range markets {
		placed := false
		for _, c := range clusters {
			score := Similarity(m.Title, c.anchorTitle)
			if score >= threshold {
				c.members = append(c.members, m)
				c.scores = append(c.scores, score)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &cluster{
				anchorTitle: m.Title,
				members:     []domain.Market{m},
				scores:      []float64{1.0},
			})
		}
	}

	products := make([]domain.UnifiedProduct, 0, len(clusters))
	for _, c := range clusters {
		products = append(products, buildProduct(c))
	}
	return products
}

// buildProduct derives one UnifiedProduct from a formed cluster. The
// representative title is the longest raw member title; on equal length the
// earlier member wins. Members and scores are copied in formation order.
func buildProduct(c *cluster) domain.UnifiedProduct {
	rep := c.members[0].Title
	for _, m := range c.members[1:] {
		if len(m.Title) > len(rep) {
			rep = m.Title
		}
	}

	members := make([]domain.Market, len(c.members))
	copy(members, c.members)
	scores := make([]float64, len(c.scores))
	copy(scores, c.scores)

	return domain.UnifiedProduct{
		UnifiedTitle:     rep,
		Members:          members,
		ConfidenceScores: scores,
	}
}

// Local adapts the clustering pass to the domain.Unifier contract so it can
// be swapped with the agent pipeline. The zero threshold means
// DefaultThreshold.
type Local struct {
	Threshold float64
}

// Unify implements domain.Unifier. It never fails.
func (l Local) Unify(_ context.Context, markets []domain.Market) ([]domain.UnifiedProduct, error) {
	t := l.Threshold
	if t == 0 {
		t = DefaultThreshold
	}
	return Cluster(markets, t), nil
}

var _ domain.Unifier = Local{}
