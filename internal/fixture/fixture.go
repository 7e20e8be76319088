// Package fixture provides canned market data so the full pipeline can run
// offline: no site fetching, no model calls, no external services.
package fixture

import "github.com/alanyoungcy/marketfuse/internal/domain"

func ptr(v float64) *float64 { return &v }

// SampleMarkets returns a fixed set of listings spanning elections, crypto,
// sports, technology, current events, and entertainment. Several topics
// appear on more than one site so the matcher has work to do.
func SampleMarkets() []domain.Market {
	return []domain.Market{
		{
			Site:  "polymarket",
			ID:    "trump-2024",
			Title: "Will Donald Trump win the 2024 US Presidential Election?",
			Price: ptr(0.45),
			URL:   "https://polymarket.com/event/trump-2024",
		},
		{
			Site:  "manifold",
			ID:    "trump-election",
			Title: "Trump wins 2024 presidential election",
			Price: ptr(0.42),
			URL:   "https://manifold.markets/trump-2024",
		},
		{
			Site:  "predictit",
			ID:    "president-2024",
			Title: "Who will win the 2024 US Presidential Election?",
			Price: ptr(0.48),
			URL:   "https://predictit.org/markets/2024-president",
		},
		{
			Site:  "polymarket",
			ID:    "btc-100k",
			Title: "Will Bitcoin reach $100,000 by end of 2024?",
			Price: ptr(0.35),
			URL:   "https://polymarket.com/event/btc-100k",
		},
		{
			Site:  "manifold",
			ID:    "bitcoin-100k",
			Title: "Bitcoin reaches $100k by December 31, 2024",
			Price: ptr(0.32),
			URL:   "https://manifold.markets/bitcoin-100k",
		},
		{
			Site:  "predictit",
			ID:    "crypto-bull",
			Title: "Will Bitcoin exceed $100,000 in 2024?",
			Price: ptr(0.38),
			URL:   "https://predictit.org/markets/bitcoin-100k",
		},
		{
			Site:  "polymarket",
			ID:    "super-bowl-2025",
			Title: "Who will win Super Bowl LIX in 2025?",
			Price: ptr(0.25),
			URL:   "https://polymarket.com/event/super-bowl-2025",
		},
		{
			Site:  "manifold",
			ID:    "superbowl-winner",
			Title: "Kansas City Chiefs win Super Bowl LIX",
			Price: ptr(0.28),
			URL:   "https://manifold.markets/superbowl-2025",
		},
		{
			Site:  "polymarket",
			ID:    "ai-breakthrough",
			Title: "Will OpenAI release GPT-5 in 2024?",
			Price: ptr(0.65),
			URL:   "https://polymarket.com/event/gpt5-2024",
		},
		{
			Site:  "manifold",
			ID:    "gpt5-release",
			Title: "OpenAI releases GPT-5 to the public in 2024",
			Price: ptr(0.62),
			URL:   "https://manifold.markets/gpt5-2024",
		},
		{
			Site:  "predictit",
			ID:    "ai-advancement",
			Title: "Will GPT-5 be publicly released in 2024?",
			Price: ptr(0.68),
			URL:   "https://predictit.org/markets/gpt5-release",
		},
		{
			Site:  "polymarket",
			ID:    "ukraine-peace",
			Title: "Will Russia and Ukraine sign a peace treaty in 2024?",
			Price: ptr(0.15),
			URL:   "https://polymarket.com/event/ukraine-peace",
		},
		{
			Site:  "manifold",
			ID:    "russia-ukraine",
			Title: "Russia and Ukraine sign peace agreement in 2024",
			Price: ptr(0.12),
			URL:   "https://manifold.markets/ukraine-peace",
		},
		{
			Site:  "polymarket",
			ID:    "oscars-2025",
			Title: "Who will win Best Picture at the 2025 Oscars?",
			Price: ptr(0.18),
			URL:   "https://polymarket.com/event/oscars-2025",
		},
		{
			Site:  "manifold",
			ID:    "best-picture",
			Title: "Oppenheimer wins Best Picture at 2025 Oscars",
			Price: ptr(0.22),
			URL:   "https://manifold.markets/oscars-2025",
		},
	}
}

// SampleProducts returns the sample markets pre-grouped by hand, for code
// paths that need unified products without running a matcher.
func SampleProducts() []domain.UnifiedProduct {
	m := SampleMarkets()
	return []domain.UnifiedProduct{
		{
			UnifiedTitle:     "Will Donald Trump win the 2024 US Presidential Election?",
			Members:          []domain.Market{m[0], m[1], m[2]},
			ConfidenceScores: []float64{1.0, 0.95, 0.90},
		},
		{
			UnifiedTitle:     "Will Bitcoin reach $100,000 by end of 2024?",
			Members:          []domain.Market{m[3], m[4], m[5]},
			ConfidenceScores: []float64{1.0, 0.92, 0.88},
		},
		{
			UnifiedTitle:     "Who will win Super Bowl LIX in 2025?",
			Members:          []domain.Market{m[6], m[7]},
			ConfidenceScores: []float64{1.0, 0.85},
		},
		{
			UnifiedTitle:     "Will OpenAI release GPT-5 in 2024?",
			Members:          []domain.Market{m[8], m[9], m[10]},
			ConfidenceScores: []float64{1.0, 0.94, 0.91},
		},
		{
			UnifiedTitle:     "Will Russia and Ukraine sign a peace treaty in 2024?",
			Members:          []domain.Market{m[11], m[12]},
			ConfidenceScores: []float64{1.0, 0.87},
		},
		{
			UnifiedTitle:     "Who will win Best Picture at the 2025 Oscars?",
			Members:          []domain.Market{m[13], m[14]},
			ConfidenceScores: []float64{1.0, 0.89},
		},
	}
}
