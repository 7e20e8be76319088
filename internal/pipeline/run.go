package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/export"
	"github.com/alanyoungcy/marketfuse/internal/metrics"
)

// runLockKey serializes collection runs across processes sharing a Redis.
const runLockKey = "run:collect"

// runLockTTL bounds how long a crashed run can hold the lock.
const runLockTTL = 10 * time.Minute

// Indexer adds unified products to a search index.
type Indexer interface {
	AddProducts(ctx context.Context, products []domain.UnifiedProduct) error
}

// Runner executes one end-to-end collection run. Only Collector, Unifier,
// OutputPath, and Logger are required; the nil-able fields switch optional
// stages on.
type Runner struct {
	Collector    *Collector
	Unifier      domain.Unifier
	OutputPath   string
	PipelineName string // "local" or "agent", recorded on the run summary
	Limit        int

	Products  domain.ProductStore
	Runs      domain.RunStore
	Snapshots domain.SnapshotWriter
	Cache     domain.MarketCache
	Index     Indexer
	Locks     domain.LockManager

	Logger *slog.Logger
}

// Result carries everything a run produced.
type Result struct {
	RunID    string
	Markets  []domain.Market
	Products []domain.UnifiedProduct
	Summary  metrics.Summary
}

// Run collects, unifies, exports, and then walks the optional stages. The
// optional stages never fail the run; their errors are logged and counted on
// the run summary.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Locks != nil {
		unlock, err := r.Locks.Acquire(ctx, runLockKey, runLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		defer unlock()
	}

	runID := uuid.NewString()
	rec := metrics.NewRecorder()
	r.Logger.Info("collection run starting",
		slog.String("run_id", runID),
		slog.String("pipeline", r.PipelineName),
		slog.Int("limit", r.Limit),
	)

	markets, err := r.Collector.Collect(ctx, r.Limit, rec)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	products, err := r.Unifier.Unify(ctx, markets)
	if err != nil {
		return nil, fmt.Errorf("run %s: unify: %w", runID, err)
	}
	rec.SetUnifiedProducts(len(products))

	if err := export.WriteCSV(r.OutputPath, products); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	r.Logger.Info("csv written",
		slog.String("path", r.OutputPath),
		slog.Int("products", len(products)),
	)

	r.runOptionalStages(ctx, runID, markets, products, rec)

	rec.Finish()
	summary := rec.Summary()

	if r.Runs != nil {
		run := domain.RunSummary{
			ID:               runID,
			StartedAt:        summary.StartedAt,
			FinishedAt:       summary.StartedAt.Add(summary.Duration),
			MarketsCollected: summary.TotalMarkets,
			UnifiedProducts:  summary.UnifiedProducts,
			ErrorCount:       summary.ErrorCount,
			Pipeline:         r.PipelineName,
		}
		if err := r.Runs.Insert(ctx, run); err != nil {
			r.Logger.Error("persist run summary failed", slog.String("error", err.Error()))
		}
	}

	r.Logger.Info("collection run complete",
		slog.String("run_id", runID),
		slog.Int("markets", summary.TotalMarkets),
		slog.Int("products", summary.UnifiedProducts),
		slog.Int("errors", summary.ErrorCount),
		slog.Duration("duration", summary.Duration),
	)

	return &Result{
		RunID:    runID,
		Markets:  markets,
		Products: products,
		Summary:  summary,
	}, nil
}

// runOptionalStages walks the configured persistence stages. Each stage is
// independent: one failing does not stop the next.
func (r *Runner) runOptionalStages(ctx context.Context, runID string, markets []domain.Market, products []domain.UnifiedProduct, rec *metrics.Recorder) {
	if r.Products != nil {
		if err := r.Products.InsertRun(ctx, runID, products); err != nil {
			r.Logger.Error("persist products failed", slog.String("error", err.Error()))
			rec.Error("postgres_insert", err)
		} else {
			r.Logger.Info("products persisted", slog.Int("count", len(products)))
		}
	}

	if r.Snapshots != nil {
		key, err := r.Snapshots.WriteSnapshot(ctx, runID, markets)
		if err != nil {
			r.Logger.Error("snapshot upload failed", slog.String("error", err.Error()))
			rec.Error("s3_snapshot", err)
		} else {
			r.Logger.Info("snapshot uploaded", slog.String("key", key))
		}
	}

	if r.Cache != nil {
		if err := r.Cache.SetBatch(ctx, markets); err != nil {
			r.Logger.Error("market cache write failed", slog.String("error", err.Error()))
			rec.Error("redis_cache", err)
		}
	}

	if r.Index != nil {
		if err := r.Index.AddProducts(ctx, products); err != nil {
			r.Logger.Error("index rebuild failed", slog.String("error", err.Error()))
			rec.Error("rag_index", err)
		} else {
			r.Logger.Info("index rebuilt", slog.Int("products", len(products)))
		}
	}
}
