package domain

import "context"

// UnifiedProduct is a group of Markets judged to describe the same
// real-world question across sites.
type UnifiedProduct struct {
	// UnifiedTitle is the representative title: the longest raw member
	// title, first occurrence winning ties.
	UnifiedTitle string `json:"unified_title"`
	// Members holds the grouped markets in cluster-formation order.
	Members []Market `json:"members"`
	// ConfidenceScores is parallel to Members: each member's title
	// similarity to the cluster's anchor title. The first member always
	// scores exactly 1.0.
	ConfidenceScores []float64 `json:"confidence_scores"`
}

// AverageConfidence returns the arithmetic mean of the confidence scores,
// or 0.0 for a product with no members.
func (p UnifiedProduct) AverageConfidence() float64 {
	if len(p.ConfidenceScores) == 0 {
		return 0.0
	}
	var sum float64
	for _, s := range p.ConfidenceScores {
		sum += s
	}
	return sum / float64(len(p.ConfidenceScores))
}

// Unifier groups collected markets into unified products. The deterministic
// matching core and the LLM-agent pipeline both implement this contract, so
// callers can swap one for the other.
type Unifier interface {
	Unify(ctx context.Context, markets []Market) ([]UnifiedProduct, error)
}
