package database

import (
	"database/sql"
	"time"
)

// FrameArchive records every inbound feed frame for diagnostics. It is
// write-only from the client's point of view: canonical state always lives
// in memory and is rebuilt by re-subscribing, never read back from here.
type FrameArchive struct {
	db *sql.DB
}

func NewFrameArchive(db *sql.DB) *FrameArchive {
	return &FrameArchive{db: db}
}

// SaveFrame stores one raw inbound frame with its resolved kind.
func (a *FrameArchive) SaveFrame(kind, payload string) error {
	query := `
		INSERT INTO feed_frames (frame_kind, payload, received_at)
		VALUES ($1, $2, $3)
	`
	_, err := a.db.Exec(query, kind, payload, time.Now())
	return err
}

// Cleanup drops archived frames older than the retention window.
func (a *FrameArchive) Cleanup(olderThan time.Duration) (int64, error) {
	result, err := a.db.Exec(
		`DELETE FROM feed_frames WHERE received_at < $1`,
		time.Now().Add(-olderThan),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
