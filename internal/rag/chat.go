package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// notFoundReply is returned when the index has nothing relevant to say.
const notFoundReply = "I couldn't find any prediction markets related to your query. " +
	"Try asking about specific topics like 'elections', 'crypto prices', or 'sports outcomes'."

// chatTopK bounds how many products one chat answer mentions.
const chatTopK = 3

// Chat answers a free-text question from the index: the most relevant
// products with per-site prices and match confidence. An empty index yields
// the not-found hint rather than an error.
func (idx *Index) Chat(ctx context.Context, message string) (string, error) {
	results, err := idx.Search(ctx, message, chatTopK)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyIndex) {
			return notFoundReply, nil
		}
		return "", err
	}
	if len(results) == 0 {
		return notFoundReply, nil
	}

	var b strings.Builder
	b.WriteString("Here are some relevant prediction markets:")

	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. **%s**", i+1, r.Product.UnifiedTitle)

		var prices []string
		for _, m := range r.Product.Members {
			if m.Price != nil {
				prices = append(prices, fmt.Sprintf("%s: %.1f%%", m.Site, *m.Price*100))
			}
		}
		if len(prices) > 0 {
			fmt.Fprintf(&b, "\n   Current prices: %s", strings.Join(prices, ", "))
		}

		fmt.Fprintf(&b, "\n   Match confidence: %.1f%%", r.Product.AverageConfidence()*100)
	}

	fmt.Fprintf(&b, "\n\nSimilarity score: %.2f", results[0].Similarity)

	return b.String(), nil
}
