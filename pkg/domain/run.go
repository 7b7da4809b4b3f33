package domain

import "time"

// OutcomeStatus tells what happened to an entry during a run
type OutcomeStatus string

// outcome statuses
const (
	OutcomeAdmitted OutcomeStatus = "admitted"
	OutcomeRejected OutcomeStatus = "rejected"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeSkipped  OutcomeStatus = "skipped"
)

// run kinds
const (
	RunIngest = "ingest"
	RunRepair = "repair"
)

// Outcome is the result of processing a single entry
type Outcome struct {
	Link   string        `json:"link" db:"link"`
	Title  string        `json:"title" db:"title"`
	Source string        `json:"source" db:"source"`
	Tier   Tier          `json:"tier" db:"tier"`
	Status OutcomeStatus `json:"status" db:"status"`
	Reason string        `json:"reason,omitempty" db:"reason"`
}

// Run summarizes a single pipeline run
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Entries    int       `json:"entries"`
	Admitted   int       `json:"admitted"`
	Rejected   int       `json:"rejected"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Added      int       `json:"added"`
	Error      string    `json:"error,omitempty"`
}
