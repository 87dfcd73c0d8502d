package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sandra-1136/client-calling/internal/domain"
	"github.com/Sandra-1136/client-calling/internal/repository"
)

// ContactRepository implements repository.ContactStore using PostgreSQL.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository constructs a new repository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a new contact at the end of the stored order.
func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	q := `INSERT INTO contacts (
		id, name, phone, notes, priority, status, attempt_count,
		last_call_at, position, created_at, updated_at
	) VALUES (
		:id, :name, :phone, :notes, :priority, :status, :attempt_count,
		:last_call_at, (SELECT COALESCE(MAX(position), 0) + 1 FROM contacts),
		:created_at, :updated_at
	)`

	params := map[string]any{
		"id":            contact.ID,
		"name":          contact.Name,
		"phone":         contact.Phone,
		"notes":         contact.Notes,
		"priority":      contact.Priority,
		"status":        contact.Status,
		"attempt_count": contact.AttemptCount,
		"last_call_at":  contact.LastCallAt,
		"created_at":    contact.CreatedAt,
		"updated_at":    contact.UpdatedAt,
	}

	if _, err := r.db.NamedExecContext(ctx, q, params); err != nil {
		return fmt.Errorf("contact repo: insert: %w", err)
	}
	return nil
}

// Get fetches a contact by id.
func (r *ContactRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	q := `SELECT id, name, phone, notes, priority, status, attempt_count,
	       last_call_at, position, created_at, updated_at
	  FROM contacts WHERE id = $1`

	row := r.db.QueryRowxContext(ctx, q, id)
	var rec contactRecord
	if err := row.StructScan(&rec); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("contact repo: get: %w", err)
	}

	contact := rec.toDomain()
	return &contact, nil
}

// Update rewrites contact metadata and status.
func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	q := `UPDATE contacts SET
		name = :name,
		phone = :phone,
		notes = :notes,
		priority = :priority,
		status = :status,
		attempt_count = :attempt_count,
		last_call_at = :last_call_at,
		updated_at = :updated_at
	 WHERE id = :id`

	params := map[string]any{
		"id":            contact.ID,
		"name":          contact.Name,
		"phone":         contact.Phone,
		"notes":         contact.Notes,
		"priority":      contact.Priority,
		"status":        contact.Status,
		"attempt_count": contact.AttemptCount,
		"last_call_at":  contact.LastCallAt,
		"updated_at":    contact.UpdatedAt,
	}

	res, err := r.db.NamedExecContext(ctx, q, params)
	if err != nil {
		return fmt.Errorf("contact repo: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("contact repo: rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a contact and closes the gap in the stored order.
func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var position int
		if err := tx.QueryRowxContext(ctx, `DELETE FROM contacts WHERE id = $1 RETURNING position`, id).Scan(&position); err != nil {
			if err == sql.ErrNoRows {
				return repository.ErrNotFound
			}
			return fmt.Errorf("contact repo: delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE contacts SET position = position - 1 WHERE position > $1`, position); err != nil {
			return fmt.Errorf("contact repo: resequence: %w", err)
		}
		return nil
	})
}

// ListContacts returns all contacts in stored order.
func (r *ContactRepository) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	q := `SELECT id, name, phone, notes, priority, status, attempt_count,
	       last_call_at, position, created_at, updated_at
	  FROM contacts ORDER BY position ASC`

	rows, err := r.db.QueryxContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("contact repo: list: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var rec contactRecord
		if err := rows.StructScan(&rec); err != nil {
			return nil, fmt.Errorf("contact repo: scan: %w", err)
		}
		contacts = append(contacts, rec.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contact repo: rows err: %w", err)
	}
	return contacts, nil
}

// SetStatus updates only the call status column.
func (r *ContactRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.CallStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contacts SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("contact repo: set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("contact repo: rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RecordOutcome applies a settled call attempt in a single statement.
func (r *ContactRepository) RecordOutcome(ctx context.Context, id uuid.UUID, status domain.CallStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contacts SET
		status = $1,
		attempt_count = attempt_count + 1,
		last_call_at = $2,
		updated_at = NOW()
	 WHERE id = $3`, status, at, id)
	if err != nil {
		return fmt.Errorf("contact repo: record outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("contact repo: rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ResetStatuses returns every contact to pending.
func (r *ContactRepository) ResetStatuses(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contacts SET
		status = 'pending',
		attempt_count = 0,
		last_call_at = NULL,
		updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("contact repo: reset statuses: %w", err)
	}
	return nil
}

// Summary aggregates contact counts per status.
func (r *ContactRepository) Summary(ctx context.Context) (*domain.Summary, error) {
	row := r.db.QueryRowxContext(ctx, `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'answered') AS answered,
		COUNT(*) FILTER (WHERE status = 'missed') AS missed,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		COUNT(*) FILTER (WHERE status = 'calling') AS calling
	 FROM contacts`)

	var rec summaryRecord
	if err := row.StructScan(&rec); err != nil {
		return nil, fmt.Errorf("contact repo: summary: %w", err)
	}
	return &domain.Summary{
		Total:    rec.Total,
		Answered: rec.Answered,
		Missed:   rec.Missed,
		Pending:  rec.Pending,
		Calling:  rec.Calling,
	}, nil
}

type contactRecord struct {
	ID           uuid.UUID    `db:"id"`
	Name         string       `db:"name"`
	Phone        string       `db:"phone"`
	Notes        string       `db:"notes"`
	Priority     bool         `db:"priority"`
	Status       string       `db:"status"`
	AttemptCount int          `db:"attempt_count"`
	LastCallAt   sql.NullTime `db:"last_call_at"`
	Position     int          `db:"position"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r contactRecord) toDomain() domain.Contact {
	contact := domain.Contact{
		ID:           r.ID,
		Name:         r.Name,
		Phone:        r.Phone,
		Notes:        r.Notes,
		Priority:     r.Priority,
		Status:       domain.CallStatus(r.Status),
		AttemptCount: r.AttemptCount,
		Position:     r.Position,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastCallAt.Valid {
		t := r.LastCallAt.Time
		contact.LastCallAt = &t
	}
	return contact
}

type summaryRecord struct {
	Total    int64 `db:"total"`
	Answered int64 `db:"answered"`
	Missed   int64 `db:"missed"`
	Pending  int64 `db:"pending"`
	Calling  int64 `db:"calling"`
}
