package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// Archiver implements domain.SnapshotArchiver by serializing each raw price
// snapshot to JSON and uploading it to S3, partitioned by capture date.
// Archives feed offline research; the scan path never reads them back.
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver that uploads through the given writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveSnapshot uploads one snapshot and returns the object key it was
// stored under.
func (a *Archiver) ArchiveSnapshot(ctx context.Context, snap *domain.PriceSnapshot) (string, error) {
	if snap == nil {
		return "", domain.ErrInvalidSnapshot
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal snapshot: %w", err)
	}

	path := snapshotPath(snap.CapturedAt)
	if err := a.writer.Put(ctx, path, bytes.NewReader(payload), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: upload snapshot: %w", err)
	}
	return path, nil
}

// snapshotPath builds the S3 key for a snapshot, partitioned by capture day
// so research jobs can list a day's worth of data with one prefix.
//
//	snapshots/2025/09/01/143005.123456789.json
func snapshotPath(capturedAt time.Time) string {
	t := capturedAt.UTC()
	return fmt.Sprintf("snapshots/%s/%s.json", t.Format("2006/01/02"), t.Format("150405.000000000"))
}

// Compile-time interface check.
var _ domain.SnapshotArchiver = (*Archiver)(nil)
