package match

import (
	"reflect"
	"testing"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

func TestRows(t *testing.T) {
	products := []domain.UnifiedProduct{
		{
			UnifiedTitle: "Will Donald Trump win the 2024 US Presidential Election?",
			Members: []domain.Market{
				mkPriced("polymarket", "trump-2024", "Will Donald Trump win the 2024 US Presidential Election?", 0.45),
				mk("manifold", "trump-election", "Trump wins 2024 presidential election"),
			},
			ConfidenceScores: []float64{1.0, 0.925},
		},
		{
			UnifiedTitle: "Completely unrelated sports headline",
			Members: []domain.Market{
				mkPriced("manifold", "sports", "Completely unrelated sports headline", 0.5),
			},
			ConfidenceScores: []float64{1.0},
		},
	}

	rows := Rows(products)

	want := [][]string{
		{"Will Donald Trump win the 2024 US Presidential Election?", "polymarket", "trump-2024", "0.4500", "1.000"},
		{"Will Donald Trump win the 2024 US Presidential Election?", "manifold", "trump-election", "", "0.925"},
		{"Completely unrelated sports headline", "manifold", "sports", "0.5000", "1.000"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Rows() = %v, want %v", rows, want)
	}
}

func TestRowsCountMatchesMembers(t *testing.T) {
	products := Cluster(electionMarkets(), DefaultThreshold)
	total := 0
	for _, p := range products {
		total += len(p.Members)
	}
	if rows := Rows(products); len(rows) != total {
		t.Errorf("got %d rows, want %d (sum of members)", len(Rows(products)), total)
	}
}

func TestRowsEmpty(t *testing.T) {
	if rows := Rows(nil); len(rows) != 0 {
		t.Errorf("Rows(nil) produced %d rows, want 0", len(rows))
	}
}
