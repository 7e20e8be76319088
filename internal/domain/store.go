package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// RunSummary records the outcome of one collection run.
type RunSummary struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	MarketsCollected int
	UnifiedProducts  int
	ErrorCount       int
	Pipeline         string // "local" or "agent"
}

// ProductStore persists unified products and their members.
type ProductStore interface {
	InsertRun(ctx context.Context, runID string, products []UnifiedProduct) error
	ListRecent(ctx context.Context, opts ListOpts) ([]UnifiedProduct, error)
	CountProducts(ctx context.Context) (int64, error)
}

// RunStore persists run summaries for auditing.
type RunStore interface {
	Insert(ctx context.Context, run RunSummary) error
	ListRecent(ctx context.Context, limit int) ([]RunSummary, error)
}
