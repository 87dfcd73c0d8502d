package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sandra-1136/client-calling/internal/domain"
	"github.com/Sandra-1136/client-calling/internal/repository"
	"github.com/Sandra-1136/client-calling/internal/service/common"
	apperrors "github.com/Sandra-1136/client-calling/pkg/errors"
)

// Service orchestrates contact CRUD and history lookups.
type Service struct {
	store    repository.ContactStore
	attempts repository.AttemptJournal
}

// NewService constructs a contact service.
func NewService(store repository.ContactStore, attempts repository.AttemptJournal) *Service {
	return &Service{store: store, attempts: attempts}
}

// CreateContactInput captures contact creation parameters.
type CreateContactInput struct {
	Name     string
	Phone    string
	Notes    string
	Priority bool
}

// UpdateContactInput captures updatable properties.
type UpdateContactInput struct {
	ID       uuid.UUID
	Name     *string
	Phone    *string
	Notes    *string
	Priority *bool
}

// Create provisions a new contact in pending status.
func (s *Service) Create(ctx context.Context, input CreateContactInput) (*domain.Contact, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	contact := &domain.Contact{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		Notes:     input.Notes,
		Priority:  input.Priority,
		Status:    domain.CallStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("contact service: create: %w", err)
	}
	return contact, nil
}

// Get retrieves a contact by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	return s.store.Get(ctx, id)
}

// List returns all contacts in stored order.
func (s *Service) List(ctx context.Context) ([]domain.Contact, error) {
	return s.store.ListContacts(ctx)
}

// Update modifies contact metadata.
func (s *Service) Update(ctx context.Context, input UpdateContactInput) (*domain.Contact, error) {
	contact, err := s.store.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidation)
		}
		contact.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		if err := validatePhone(*input.Phone); err != nil {
			return nil, err
		}
		contact.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Notes != nil {
		contact.Notes = *input.Notes
	}
	if input.Priority != nil {
		contact.Priority = *input.Priority
	}
	contact.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Delete removes a contact.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// Summary aggregates status counts for the dashboard header.
func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	return s.store.Summary(ctx)
}

// Reset returns every contact to pending.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.ResetStatuses(ctx)
}

// AttemptsPage is one page of a contact's call history.
type AttemptsPage struct {
	Attempts    []domain.CallAttempt
	PagingState []byte
}

// ListAttempts pages through the attempt journal for one contact.
func (s *Service) ListAttempts(ctx context.Context, contactID uuid.UUID, limit int, pagingState []byte) (*AttemptsPage, error) {
	attempts, next, err := s.attempts.ListByContact(ctx, contactID, limit, pagingState)
	if err != nil {
		return nil, err
	}
	return &AttemptsPage{Attempts: attempts, PagingState: next}, nil
}

// EncodePagingState converts paging state to base64 for API responses.
func EncodePagingState(state []byte) string {
	if len(state) == 0 {
		return ""
	}
	return common.EncodeBase64(state)
}

// DecodePagingState decodes a base64 token to paging state bytes.
func DecodePagingState(token string) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	return common.DecodeBase64(token)
}

func validateCreateInput(input CreateContactInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	return validatePhone(input.Phone)
}

func validatePhone(phone string) error {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return fmt.Errorf("%w: phone number is required", apperrors.ErrValidation)
	}
	for i, r := range trimmed {
		if r >= '0' && r <= '9' {
			continue
		}
		if i == 0 && r == '+' {
			continue
		}
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			continue
		}
		return fmt.Errorf("%w: phone number contains invalid character %q", apperrors.ErrValidation, r)
	}
	return nil
}
