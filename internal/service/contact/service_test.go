package contact

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Sandra-1136/client-calling/internal/domain"
	"github.com/Sandra-1136/client-calling/internal/repository"
	apperrors "github.com/Sandra-1136/client-calling/pkg/errors"
)

type memoryStore struct {
	contacts map[uuid.UUID]*domain.Contact
	order    []uuid.UUID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{contacts: make(map[uuid.UUID]*domain.Contact)}
}

func (s *memoryStore) Create(ctx context.Context, contact *domain.Contact) error {
	for _, existing := range s.contacts {
		if existing.Phone == contact.Phone {
			return repository.ErrConflict
		}
	}
	contact.Position = len(s.order) + 1
	c := *contact
	s.contacts[contact.ID] = &c
	s.order = append(s.order, contact.ID)
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	c, ok := s.contacts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *memoryStore) Update(ctx context.Context, contact *domain.Contact) error {
	if _, ok := s.contacts[contact.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *contact
	s.contacts[contact.ID] = &c
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.contacts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.contacts, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for i, oid := range s.order {
		s.contacts[oid].Position = i + 1
	}
	return nil
}

func (s *memoryStore) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	out := make([]domain.Contact, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.contacts[id])
	}
	return out, nil
}

func (s *memoryStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.CallStatus) error {
	c, ok := s.contacts[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

func (s *memoryStore) RecordOutcome(ctx context.Context, id uuid.UUID, status domain.CallStatus, at time.Time) error {
	c, ok := s.contacts[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	c.AttemptCount++
	t := at
	c.LastCallAt = &t
	return nil
}

func (s *memoryStore) ResetStatuses(ctx context.Context) error {
	for _, c := range s.contacts {
		c.Status = domain.CallStatusPending
		c.AttemptCount = 0
		c.LastCallAt = nil
	}
	return nil
}

func (s *memoryStore) Summary(ctx context.Context) (*domain.Summary, error) {
	sum := &domain.Summary{}
	for _, c := range s.contacts {
		sum.Total++
		switch c.Status {
		case domain.CallStatusAnswered:
			sum.Answered++
		case domain.CallStatusMissed:
			sum.Missed++
		case domain.CallStatusCalling:
			sum.Calling++
		default:
			sum.Pending++
		}
	}
	return sum, nil
}

type memoryJournal struct {
	attempts []domain.CallAttempt
}

func (j *memoryJournal) Append(ctx context.Context, attempt domain.CallAttempt) error {
	j.attempts = append(j.attempts, attempt)
	return nil
}

func (j *memoryJournal) ListByContact(ctx context.Context, contactID uuid.UUID, limit int, pagingState []byte) ([]domain.CallAttempt, []byte, error) {
	var out []domain.CallAttempt
	for _, a := range j.attempts {
		if a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out, nil, nil
}

func TestCreateContact(t *testing.T) {
	svc := NewService(newMemoryStore(), &memoryJournal{})

	contact, err := svc.Create(context.Background(), CreateContactInput{
		Name:  "  Alice Martin  ",
		Phone: "+49 152 0000001",
		Notes: "prefers mornings",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if contact.Name != "Alice Martin" {
		t.Errorf("expected trimmed name, got %q", contact.Name)
	}
	if contact.Status != domain.CallStatusPending {
		t.Errorf("expected pending status, got %s", contact.Status)
	}
	if contact.ID == uuid.Nil {
		t.Errorf("expected generated id")
	}
}

func TestCreateContactValidation(t *testing.T) {
	svc := NewService(newMemoryStore(), &memoryJournal{})

	cases := []struct {
		name  string
		input CreateContactInput
	}{
		{"empty name", CreateContactInput{Name: "   ", Phone: "+491520000001"}},
		{"empty phone", CreateContactInput{Name: "Alice", Phone: ""}},
		{"letters in phone", CreateContactInput{Name: "Alice", Phone: "+49call-me"}},
		{"plus not leading", CreateContactInput{Name: "Alice", Phone: "49+1520000001"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.input); !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateContactAcceptsFormattedPhones(t *testing.T) {
	svc := NewService(newMemoryStore(), &memoryJournal{})

	for i, phone := range []string{"+49 (152) 000-0001", "0152 0000002", "+1-555-000-0003"} {
		if _, err := svc.Create(context.Background(), CreateContactInput{Name: "c", Phone: phone}); err != nil {
			t.Errorf("case %d: expected %q to be accepted, got %v", i, phone, err)
		}
	}
}

func TestCreateContactDuplicatePhone(t *testing.T) {
	svc := NewService(newMemoryStore(), &memoryJournal{})

	if _, err := svc.Create(context.Background(), CreateContactInput{Name: "Alice", Phone: "+491520000001"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateContactInput{Name: "Bob", Phone: "+491520000001"}); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateContact(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, &memoryJournal{})

	contact, err := svc.Create(context.Background(), CreateContactInput{Name: "Alice", Phone: "+491520000001"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "Alice M."
	priority := true
	updated, err := svc.Update(context.Background(), UpdateContactInput{
		ID:       contact.ID,
		Name:     &newName,
		Priority: &priority,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Alice M." || !updated.Priority {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Phone != contact.Phone {
		t.Fatalf("untouched field changed: %q", updated.Phone)
	}
}

func TestUpdateContactRejectsEmptyName(t *testing.T) {
	svc := NewService(newMemoryStore(), &memoryJournal{})

	contact, err := svc.Create(context.Background(), CreateContactInput{Name: "Alice", Phone: "+491520000001"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	empty := "  "
	if _, err := svc.Update(context.Background(), UpdateContactInput{ID: contact.ID, Name: &empty}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateUnknownContact(t *testing.T) {
	svc := NewService(newMemoryStore(), &memoryJournal{})

	name := "ghost"
	if _, err := svc.Update(context.Background(), UpdateContactInput{ID: uuid.New(), Name: &name}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteContactResequencesPositions(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, &memoryJournal{})

	var ids []uuid.UUID
	for _, phone := range []string{"+491520000001", "+491520000002", "+491520000003"} {
		c, err := svc.Create(context.Background(), CreateContactInput{Name: "c", Phone: phone})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, c.ID)
	}

	if err := svc.Delete(context.Background(), ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	contacts, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	for i, c := range contacts {
		if c.Position != i+1 {
			t.Fatalf("expected contiguous positions, got %d at index %d", c.Position, i)
		}
	}
}

func TestResetReturnsEveryoneToPending(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, &memoryJournal{})

	c, err := svc.Create(context.Background(), CreateContactInput{Name: "Alice", Phone: "+491520000001"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.RecordOutcome(context.Background(), c.ID, domain.CallStatusAnswered, time.Now()); err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	if err := svc.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.CallStatusPending || got.AttemptCount != 0 || got.LastCallAt != nil {
		t.Fatalf("reset incomplete: %+v", got)
	}
}

func TestSummaryCounts(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, &memoryJournal{})

	var ids []uuid.UUID
	for _, phone := range []string{"+491520000001", "+491520000002", "+491520000003"} {
		c, err := svc.Create(context.Background(), CreateContactInput{Name: "c", Phone: phone})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, c.ID)
	}
	_ = store.SetStatus(context.Background(), ids[0], domain.CallStatusAnswered)
	_ = store.SetStatus(context.Background(), ids[1], domain.CallStatusMissed)

	sum, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 3 || sum.Answered != 1 || sum.Missed != 1 || sum.Pending != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestPagingStateRoundTrip(t *testing.T) {
	state := []byte{0x01, 0xfe, 0x10, 0x00, 0x7f}

	token := EncodePagingState(state)
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	decoded, err := DecodePagingState(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, state) {
		t.Fatalf("round trip mismatch: %v != %v", decoded, state)
	}

	if EncodePagingState(nil) != "" {
		t.Fatalf("expected empty token for empty state")
	}
	if decoded, err := DecodePagingState(""); err != nil || decoded != nil {
		t.Fatalf("expected nil state for empty token, got %v / %v", decoded, err)
	}
}
