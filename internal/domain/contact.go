package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus enumerates the outreach state of a contact.
type CallStatus string

const (
	CallStatusPending  CallStatus = "pending"
	CallStatusCalling  CallStatus = "calling"
	CallStatusAnswered CallStatus = "answered"
	CallStatusMissed   CallStatus = "missed"
)

// Unanswered reports whether the status makes a contact eligible for
// another round of dialing.
func (s CallStatus) Unanswered() bool {
	return s == CallStatusPending || s == CallStatusMissed
}

// Contact models a client record on the outreach dashboard.
type Contact struct {
	ID           uuid.UUID
	Name         string
	Phone        string
	Notes        string
	Priority     bool
	Status       CallStatus
	AttemptCount int
	LastCallAt   *time.Time
	Position     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CallAttempt captures a single dial attempt for the history journal.
type CallAttempt struct {
	ID         uuid.UUID
	ContactID  uuid.UUID
	AttemptNum int
	Answered   bool
	Error      string
	Duration   time.Duration
	CreatedAt  time.Time
}

// Summary aggregates contact counts per status for the dashboard header.
type Summary struct {
	Total    int64
	Answered int64
	Missed   int64
	Pending  int64
	Calling  int64
}

// RunSnapshot is the externally visible state of an auto-call run.
type RunSnapshot struct {
	Active    bool
	Round     int
	Position  int
	CallingID *uuid.UUID
}
