package models

import "time"

// SessionStatus is the lifecycle state of an AA data session as tracked
// locally between creation and ingestion.
type SessionStatus string

const (
	SessionPending  SessionStatus = "PENDING"
	SessionIngested SessionStatus = "INGESTED"
	SessionFailed   SessionStatus = "FAILED"
)

// DataSession tracks one AA data pull from session creation through
// ingestion of its payload.
type DataSession struct {
	SessionID string        `json:"session_id"`
	ConsentID string        `json:"consent_id"`
	Status    SessionStatus `json:"status"`
	LastError string        `json:"last_error,omitempty"`
	CreatedAt time.Time     `json:"created_at,omitempty"`
	UpdatedAt time.Time     `json:"updated_at,omitempty"`
}
