package match

import (
	"strconv"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// Header is the column layout of the flattened result table.
var Header = []string{"unified_title", "site", "site_product_id", "price", "confidence"}

// Rows flattens unified products into output rows, one per (product,
// member) pair, iterated in product order then member order. Price is empty
// when absent, otherwise fixed 4-decimal; confidence is fixed 3-decimal.
// Pure transform; the caller decides where the rows go.
func Rows(products []domain.UnifiedProduct) [][]string {
	var rows [][]string
	for _, p := range products {
		for i, m := range p.Members {
			price := ""
			if m.Price != nil {
				price = strconv.FormatFloat(*m.Price, 'f', 4, 64)
			}
			rows = append(rows, []string{
				p.UnifiedTitle,
				m.Site,
				m.ID,
				price,
				strconv.FormatFloat(p.ConfidenceScores[i], 'f', 3, 64),
			})
		}
	}
	return rows
}
