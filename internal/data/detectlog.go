package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// detectionLogRepo implements the detection audit log on sqlite.
type detectionLogRepo struct {
	db *sql.DB
}

// NewDetectionLogRepo creates the audit log database at dbPath.
func NewDetectionLogRepo(dbPath string) (repo.DetectionLogRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			content TEXT NOT NULL,
			confidence REAL NOT NULL,
			escalated INTEGER NOT NULL DEFAULT 0,
			confirmed INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_detections_created_at ON detections(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &detectionLogRepo{db: db}, nil
}

// Record inserts one audit row.
func (r *detectionLogRepo) Record(ctx context.Context, d *repo.Detection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO detections (user_id, chat_id, content, confidence, escalated, confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.UserID, d.ChatID, d.Content, d.Confidence, boolToInt(d.Escalated), boolToInt(d.Confirmed), d.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record detection: %w", err)
	}
	return nil
}

// Stats aggregates the audit log.
func (r *detectionLogRepo) Stats(ctx context.Context) (*repo.DetectionStats, error) {
	var stats repo.DetectionStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(escalated), 0),
		       COALESCE(SUM(confirmed), 0)
		FROM detections
	`).Scan(&stats.Total, &stats.Escalated, &stats.Confirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return &stats, nil
}

// Close closes the database.
func (r *detectionLogRepo) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
