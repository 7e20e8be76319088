package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/match"
)

type stubProductStore struct {
	inserted []domain.UnifiedProduct
	err      error
}

func (s *stubProductStore) InsertRun(ctx context.Context, runID string, products []domain.UnifiedProduct) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, products...)
	return nil
}

func (s *stubProductStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.UnifiedProduct, error) {
	return s.inserted, nil
}

func (s *stubProductStore) CountProducts(ctx context.Context) (int64, error) {
	return int64(len(s.inserted)), nil
}

type stubRunStore struct {
	runs []domain.RunSummary
}

func (s *stubRunStore) Insert(ctx context.Context, run domain.RunSummary) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *stubRunStore) ListRecent(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	return s.runs, nil
}

type stubLocks struct {
	held     bool
	acquired int
	released int
}

func (s *stubLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if s.held {
		return nil, domain.ErrLockHeld
	}
	s.acquired++
	return func() { s.released++ }, nil
}

func newTestRunner(t *testing.T, fetchers []Fetcher) *Runner {
	t.Helper()
	return &Runner{
		Collector:    NewCollector(fetchers, nil, 0, discard()),
		Unifier:      match.Local{},
		OutputPath:   filepath.Join(t.TempDir(), "out.csv"),
		PipelineName: "local",
		Limit:        100,
		Logger:       discard(),
	}
}

func TestRunProducesCSVAndSummary(t *testing.T) {
	r := newTestRunner(t, []Fetcher{
		&stubFetcher{site: "polymarket", markets: []domain.Market{
			{Site: "polymarket", ID: "p1", Title: "Will Trump win the 2024 presidential election?"},
		}},
		&stubFetcher{site: "manifold", markets: []domain.Market{
			{Site: "manifold", ID: "m1", Title: "Will Donald Trump win the 2024 election?"},
		}},
	})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(res.Markets) != 2 {
		t.Errorf("got %d markets, want 2", len(res.Markets))
	}
	if len(res.Products) != 1 {
		t.Fatalf("got %d products, want the two titles merged into 1", len(res.Products))
	}
	if res.Summary.TotalMarkets != 2 || res.Summary.UnifiedProducts != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}

	data, err := os.ReadFile(r.OutputPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(data), "unified_title,site,site_product_id,price,confidence") {
		t.Errorf("csv missing header: %q", string(data))
	}
}

func TestRunOptionalStages(t *testing.T) {
	r := newTestRunner(t, []Fetcher{
		&stubFetcher{site: "polymarket", markets: mkMarkets("polymarket", 2)},
	})
	products := &stubProductStore{}
	runs := &stubRunStore{}
	r.Products = products
	r.Runs = runs

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(products.inserted) != len(res.Products) {
		t.Errorf("store has %d products, want %d", len(products.inserted), len(res.Products))
	}
	if len(runs.runs) != 1 {
		t.Fatalf("got %d run summaries, want 1", len(runs.runs))
	}
	run := runs.runs[0]
	if run.ID != res.RunID || run.Pipeline != "local" || run.MarketsCollected != 2 {
		t.Errorf("run summary = %+v", run)
	}
}

func TestRunOptionalStageFailureIsNotFatal(t *testing.T) {
	r := newTestRunner(t, []Fetcher{
		&stubFetcher{site: "polymarket", markets: mkMarkets("polymarket", 1)},
	})
	r.Products = &stubProductStore{err: errors.New("db down")}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should survive a failing store: %v", err)
	}
	if res.Summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want the store failure recorded", res.Summary.ErrorCount)
	}
}

func TestRunLock(t *testing.T) {
	locks := &stubLocks{}
	r := newTestRunner(t, []Fetcher{
		&stubFetcher{site: "polymarket", markets: mkMarkets("polymarket", 1)},
	})
	r.Locks = locks

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if locks.acquired != 1 || locks.released != 1 {
		t.Errorf("lock acquired=%d released=%d, want 1/1", locks.acquired, locks.released)
	}

	locks.held = true
	if _, err := r.Run(context.Background()); !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("err = %v, want ErrLockHeld while another run holds the lock", err)
	}
}
