package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run represents an extraction run record
type Run struct {
	ID            uuid.UUID `json:"id"`
	SourceURL     string    `json:"source_url"`
	PageLimit     int       `json:"page_limit"`
	TotalPages    int       `json:"total_pages"`
	TotalContacts int       `json:"total_contacts"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// contactColumns is the column order used to copy contacts in.
var contactColumns = []string{
	"run_id", "identity_url", "name", "job_title", "location",
	"past_experience", "mutual_connections", "additional_info_1", "additional_info_2",
	"page_number",
}

// NewRun builds the record of a run that started at started and has just
// ended, failed when runErr is non-nil.
func NewRun(id uuid.UUID, sourceURL string, pageLimit, totalPages int, started time.Time, runErr error) *Run {
	run := &Run{
		ID:          id,
		SourceURL:   sourceURL,
		PageLimit:   pageLimit,
		TotalPages:  totalPages,
		Status:      StatusCompleted,
		CreatedAt:   started,
		CompletedAt: time.Now(),
	}
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}
	return run
}
