package domain

import "time"

// Outcome is what the assignment worker did with a queue head.
type Outcome string

const (
	OutcomeIdle           Outcome = "idle"
	OutcomeAssigned       Outcome = "assigned"
	OutcomeFailed         Outcome = "failed"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeMissingField   Outcome = "missing_field"
	OutcomeMissingID      Outcome = "missing_id"
	OutcomeUnknownVersion Outcome = "unknown_version"
	OutcomeOutOfScope     Outcome = "out_of_scope"
	OutcomeRedirected     Outcome = "redirected"
	OutcomeExhausted      Outcome = "exhausted"
	OutcomeStoreError     Outcome = "store_error"
)

// AssignmentEvent is one audit record of a worker decision.
type AssignmentEvent struct {
	ID           string    `json:"id"`
	ComplaintID  string    `json:"complaint_id,omitempty"`
	Municipality string    `json:"municipality,omitempty"`
	Outcome      Outcome   `json:"outcome"`
	Attempt      int       `json:"attempt"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
