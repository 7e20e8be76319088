package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// SnapshotWriter implements domain.SnapshotWriter by uploading the raw
// collected batch of a run as one JSON object.
//
// Key schema: snapshots/YYYY/MM/DD/run-{runID}.json
type SnapshotWriter struct {
	uploader *manager.Uploader
	bucket   string
	now      func() time.Time
}

var _ domain.SnapshotWriter = (*SnapshotWriter)(nil)

// NewSnapshotWriter creates a SnapshotWriter over the given client.
func NewSnapshotWriter(c *Client) *SnapshotWriter {
	return &SnapshotWriter{
		uploader: manager.NewUploader(c.S3()),
		bucket:   c.Bucket(),
		now:      time.Now,
	}
}

// snapshot is the archived object layout.
type snapshot struct {
	RunID      string          `json:"run_id"`
	CapturedAt time.Time       `json:"captured_at"`
	Count      int             `json:"count"`
	Markets    []domain.Market `json:"markets"`
}

// WriteSnapshot uploads the batch and returns the object key.
func (w *SnapshotWriter) WriteSnapshot(ctx context.Context, runID string, markets []domain.Market) (string, error) {
	captured := w.now().UTC()
	key := fmt.Sprintf("snapshots/%s/run-%s.json", captured.Format("2006/01/02"), runID)

	data, err := json.Marshal(snapshot{
		RunID:      runID,
		CapturedAt: captured,
		Count:      len(markets),
		Markets:    markets,
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal snapshot %s: %w", runID, err)
	}

	_, err = w.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: upload snapshot %s: %w", key, err)
	}

	return key, nil
}
