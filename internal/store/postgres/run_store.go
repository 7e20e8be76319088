package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// RunStore implements domain.RunStore using PostgreSQL.
type RunStore struct {
	pool *pgxpool.Pool
}

var _ domain.RunStore = (*RunStore)(nil)

// NewRunStore creates a RunStore backed by the given connection pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Insert stores one run summary.
func (s *RunStore) Insert(ctx context.Context, run domain.RunSummary) error {
	const query = `
		INSERT INTO runs (id, started_at, finished_at, markets_collected, unified_products, error_count, pipeline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		run.ID, run.StartedAt, run.FinishedAt,
		run.MarketsCollected, run.UnifiedProducts, run.ErrorCount, run.Pipeline,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert run %s: %w", run.ID, err)
	}
	return nil
}

// ListRecent returns the most recent runs, newest first.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, finished_at, markets_collected, unified_products, error_count, pipeline
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var r domain.RunSummary
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt,
			&r.MarketsCollected, &r.UnifiedProducts, &r.ErrorCount, &r.Pipeline,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent runs rows: %w", err)
	}
	return runs, nil
}
