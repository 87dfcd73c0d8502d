package callbridge

import (
	"context"
	"time"

	"github.com/Sandra-1136/client-calling/internal/domain"
)

// Result captures the outcome reported by the calling backend.
type Result struct {
	Answered bool
	Duration time.Duration
	Error    string
}

// Provider abstracts the hosted calling backend. An error from PlaceCall is
// treated by callers the same as an unanswered call.
type Provider interface {
	PlaceCall(ctx context.Context, contact domain.Contact) (Result, error)
}
