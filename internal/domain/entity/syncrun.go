package entity

import "time"

// Sync pipeline states. A pass moves Idle -> Fetching -> Processing ->
// Finalizing and back to Idle whatever the outcome.
const (
	SyncStateIdle       = "IDLE"
	SyncStateFetching   = "FETCHING"
	SyncStateProcessing = "PROCESSING"
	SyncStateFinalizing = "FINALIZING"
)

// Terminal statuses for a persisted SyncRun.
const (
	SyncRunRunning   = "RUNNING"
	SyncRunCompleted = "COMPLETED"
	SyncRunFailed    = "FAILED"
)

// SyncReport aggregates per-record outcomes of one sync pass. Every fetched
// record lands in exactly one counter.
type SyncReport struct {
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Errors  int    `json:"errors"`
	Message string `json:"message"`
}

// Total returns the number of records accounted for.
func (r SyncReport) Total() int {
	return r.Created + r.Updated + r.Skipped + r.Errors
}

// SyncRun is the persisted record of one sync pass.
type SyncRun struct {
	ID         string     `json:"id"`
	State      string     `json:"state"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Skipped    int        `json:"skipped"`
	Errors     int        `json:"errors"`
	Message    string     `json:"message,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
