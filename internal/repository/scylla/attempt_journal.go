package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/Sandra-1136/client-calling/internal/domain"
)

// AttemptJournal persists the per-contact call attempt history in Scylla.
type AttemptJournal struct {
	session *gocql.Session
}

// NewAttemptJournal creates a new journal.
func NewAttemptJournal(session *gocql.Session) *AttemptJournal {
	return &AttemptJournal{session: session}
}

// Append inserts one attempt record. The partition is the contact, clustered
// newest-first on the attempt timestamp.
func (j *AttemptJournal) Append(ctx context.Context, attempt domain.CallAttempt) error {
	if err := j.session.Query(`INSERT INTO attempts_by_contact (contact_id, attempted_at, attempt_id, attempt_num, answered, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attempt.ContactID.String(), attempt.CreatedAt, attempt.ID.String(), attempt.AttemptNum,
		attempt.Answered, attempt.Error, attempt.Duration.Milliseconds(),
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("attempt journal: insert: %w", err)
	}
	return nil
}

// ListByContact pages through attempts for one contact, newest first.
func (j *AttemptJournal) ListByContact(ctx context.Context, contactID uuid.UUID, limit int, pagingState []byte) ([]domain.CallAttempt, []byte, error) {
	if limit <= 0 {
		limit = 50
	}

	query := j.session.Query(`SELECT contact_id, attempted_at, attempt_id, attempt_num, answered, error, duration_ms
		FROM attempts_by_contact WHERE contact_id = ?`, contactID.String()).
		WithContext(ctx).PageSize(limit).PageState(pagingState)

	iter := query.Iter()

	var (
		attempts      []domain.CallAttempt
		contactIDStr  string
		attemptedAt   time.Time
		attemptIDStr  string
		attemptNum    int
		answered      bool
		attemptErrMsg string
		durationMs    int64
	)

	for iter.Scan(&contactIDStr, &attemptedAt, &attemptIDStr, &attemptNum, &answered, &attemptErrMsg, &durationMs) {
		attemptID, err := uuid.Parse(attemptIDStr)
		if err != nil {
			iter.Close()
			return nil, nil, fmt.Errorf("attempt journal: parse attempt_id: %w", err)
		}
		attempts = append(attempts, domain.CallAttempt{
			ID:         attemptID,
			ContactID:  contactID,
			AttemptNum: attemptNum,
			Answered:   answered,
			Error:      attemptErrMsg,
			Duration:   time.Duration(durationMs) * time.Millisecond,
			CreatedAt:  attemptedAt,
		})
		if len(attempts) >= limit {
			break
		}
	}

	next := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("attempt journal: iter close: %w", err)
	}
	return attempts, next, nil
}
