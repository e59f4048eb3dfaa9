package models

import "time"

// Import session statuses as stored in import_sessions.status.
const (
	ImportStatusPreviewing = "previewing"
	ImportStatusUploading  = "uploading"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
	ImportStatusCancelled  = "cancelled"
)

// ImportSession is the audit row of one bulk import.
type ImportSession struct {
	ID           int64      `db:"id" json:"id"`
	SessionCode  string     `db:"session_code" json:"session_code"`
	UserID       int        `db:"user_id" json:"user_id"`
	EntityKind   string     `db:"entity_kind" json:"entity_kind"`
	Filename     string     `db:"filename" json:"filename"`
	Format       string     `db:"format" json:"format"`
	TotalRecords int        `db:"total_records" json:"total_records"`
	Imported     int        `db:"imported" json:"imported"`
	Skipped      int        `db:"skipped" json:"skipped"`
	Failed       int        `db:"failed" json:"failed"`
	Status       string     `db:"status" json:"status"`
	Message      string     `db:"message" json:"message"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
