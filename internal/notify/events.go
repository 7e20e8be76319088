package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// RunCompleted reports a finished collection run with its headline numbers.
func (n *Notifier) RunCompleted(ctx context.Context, summary domain.RunSummary) error {
	title := "Collection run completed"
	message := fmt.Sprintf(
		"Run %s (%s pipeline)\nMarkets collected: %d\nUnified products: %d\nErrors: %d\nDuration: %s",
		summary.ID,
		summary.Pipeline,
		summary.MarketsCollected,
		summary.UnifiedProducts,
		summary.ErrorCount,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
	)
	return n.Notify(ctx, EventRunCompleted, title, message)
}

// RunFailed reports a run that produced no output.
func (n *Notifier) RunFailed(ctx context.Context, pipeline string, runErr error) error {
	title := "Collection run failed"
	message := fmt.Sprintf("Pipeline: %s\nError: %v", pipeline, runErr)
	return n.Notify(ctx, EventRunFailed, title, message)
}
