package domain

import "context"

// SnapshotWriter archives the raw collected batch of a run to object
// storage for later reprocessing.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, runID string, markets []Market) (key string, err error)
}
