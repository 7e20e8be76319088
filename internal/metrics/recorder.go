// Package metrics provides an injected run-metrics recorder. A Recorder is
// passed explicitly to the collaborators that report into it, keeping the
// matching core free of hidden global state.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// SiteError captures one failed operation with enough context for the run
// summary.
type SiteError struct {
	Context string    `json:"context"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Recorder accumulates counters for a single run. Safe for concurrent use
// by the parallel site fetchers.
type Recorder struct {
	mu              sync.Mutex
	startedAt       time.Time
	collectedBySite map[string]int
	unifiedProducts int
	duration        time.Duration
	errors          []SiteError
}

// NewRecorder returns a Recorder with its start time set to now.
func NewRecorder() *Recorder {
	return &Recorder{
		startedAt:       time.Now().UTC(),
		collectedBySite: make(map[string]int),
	}
}

// MarketsCollected records that n markets were collected from site.
func (r *Recorder) MarketsCollected(site string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectedBySite[site] += n
}

// Error records a failed operation under the given context label.
func (r *Recorder) Error(context string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, SiteError{
		Context: context,
		Message: err.Error(),
		At:      time.Now().UTC(),
	})
}

// SetUnifiedProducts records the number of unified products built.
func (r *Recorder) SetUnifiedProducts(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unifiedProducts = n
}

// Finish records the total processing duration.
func (r *Recorder) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duration = time.Since(r.startedAt)
}

// Summary is a point-in-time snapshot of the run counters.
type Summary struct {
	StartedAt       time.Time      `json:"started_at"`
	TotalMarkets    int            `json:"total_markets"`
	SitesScraped    []string       `json:"sites_scraped"`
	BySite          map[string]int `json:"by_site"`
	UnifiedProducts int            `json:"unified_products"`
	ErrorCount      int            `json:"error_count"`
	Errors          []SiteError    `json:"errors,omitempty"`
	Duration        time.Duration  `json:"duration"`
}

// Summary returns a copy of the current counters.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	sites := make([]string, 0, len(r.collectedBySite))
	bySite := make(map[string]int, len(r.collectedBySite))
	for site, n := range r.collectedBySite {
		total += n
		bySite[site] = n
	}
	for site := range bySite {
		sites = append(sites, site)
	}
	sort.Strings(sites)

	errs := make([]SiteError, len(r.errors))
	copy(errs, r.errors)

	return Summary{
		StartedAt:       r.startedAt,
		TotalMarkets:    total,
		SitesScraped:    sites,
		BySite:          bySite,
		UnifiedProducts: r.unifiedProducts,
		ErrorCount:      len(errs),
		Errors:          errs,
		Duration:        r.duration,
	}
}
