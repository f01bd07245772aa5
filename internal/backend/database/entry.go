package database

import "time"

// Status of a processed request. Failed requests record their error kind.
const (
	StatusOK         = "ok"
	StatusTransport  = "transport"
	StatusProcessing = "processing"
	StatusCancelled  = "cancelled"
	StatusInternal   = "internal"
)

// Entry is one journaled image processing request.
type Entry struct {
	ID          string    `db:"id" json:"id"`
	SourceURL   string    `db:"source_url" json:"sourceUrl"`
	OpCount     int       `db:"op_count" json:"opCount"`
	Status      string    `db:"status" json:"status"`
	Error       string    `db:"error" json:"error,omitempty"`
	DurationMs  int64     `db:"duration_ms" json:"durationMs"`
	OutputBytes int       `db:"output_bytes" json:"outputBytes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
