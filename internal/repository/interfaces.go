package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Sandra-1136/client-calling/internal/domain"
	apperrors "github.com/Sandra-1136/client-calling/pkg/errors"
)

var (
	// ErrNotFound indicates the entity was not located.
	ErrNotFound = apperrors.ErrNotFound
	// ErrConflict indicates a unique constraint violation.
	ErrConflict = apperrors.ErrConflict
)

// ContactStore manages contact records and their call status.
type ContactStore interface {
	Create(ctx context.Context, contact *domain.Contact) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListContacts returns a snapshot of all contacts in stored order.
	ListContacts(ctx context.Context) ([]domain.Contact, error)

	// SetStatus updates only the call status. Returns ErrNotFound for an
	// unknown contact so callers can log and skip.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.CallStatus) error

	// RecordOutcome applies the result of a settled call attempt: final
	// status, attempt counter increment and last-call timestamp in one write.
	RecordOutcome(ctx context.Context, id uuid.UUID, status domain.CallStatus, at time.Time) error

	// ResetStatuses returns every contact to pending with zeroed counters.
	ResetStatuses(ctx context.Context) error

	Summary(ctx context.Context) (*domain.Summary, error)
}

// AttemptJournal keeps the append-only history of call attempts.
type AttemptJournal interface {
	Append(ctx context.Context, attempt domain.CallAttempt) error
	ListByContact(ctx context.Context, contactID uuid.UUID, limit int, pagingState []byte) ([]domain.CallAttempt, []byte, error)
}
