package repo

import (
	"context"
	"time"
)

// Detection is one audit row for a message that passed the local label
// check, whether or not it was ultimately recorded.
type Detection struct {
	UserID     string
	ChatID     string
	Content    string
	Confidence float64
	Escalated  bool // cleared the confidence threshold
	Confirmed  bool // confirmed and recorded as a promise
	CreatedAt  time.Time
}

// DetectionStats aggregates the audit log.
type DetectionStats struct {
	Total     int64
	Escalated int64
	Confirmed int64
}

// DetectionLogRepo records pipeline decisions for later inspection.
// Logging failures must never affect the pipeline.
type DetectionLogRepo interface {
	Record(ctx context.Context, d *Detection) error
	Stats(ctx context.Context) (*DetectionStats, error)
	Close() error
}
