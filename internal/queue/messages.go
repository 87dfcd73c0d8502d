package queue

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeMessage records the result of one settled call attempt. It is the
// event the outcome worker turns into journal rows and daily counters.
type OutcomeMessage struct {
	ContactID  uuid.UUID `json:"contact_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Attempt    int       `json:"attempt"`
	Answered   bool      `json:"answered"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Round      int       `json:"round"`
	Manual     bool      `json:"manual"`
	OccurredAt time.Time `json:"occurred_at"`
}
