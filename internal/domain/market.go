package domain

// Market represents one prediction-market listing collected from one site.
// Instances are read-only after creation; the matching core never mutates
// them.
type Market struct {
	// Site identifies the source platform (e.g. "polymarket", "manifold").
	Site string `json:"site"`
	// ID is the site-local identifier. Unique within one site per run, not
	// globally; matching is purely title-driven.
	ID string `json:"id"`
	// Title is the free-text market question and the primary matching key.
	Title string `json:"title"`
	// Price is the probability/price in [0,1], nil when the site does not
	// report one.
	Price *float64 `json:"price,omitempty"`
	// URL links back to the listing on the source site.
	URL string `json:"url,omitempty"`
	// Additional carries source-specific metadata untouched. The matching
	// core never reads it.
	Additional map[string]any `json:"additional,omitempty"`
}
