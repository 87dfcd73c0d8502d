package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Sandra-1136/client-calling/internal/domain"
	contactsvc "github.com/Sandra-1136/client-calling/internal/service/contact"
)

type createContactRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Notes    string `json:"notes"`
	Priority bool   `json:"priority"`
}

type updateContactRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Notes    *string `json:"notes"`
	Priority *bool   `json:"priority"`
}

type contactResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
	Notes        string            `json:"notes,omitempty"`
	Priority     bool              `json:"priority"`
	Status       domain.CallStatus `json:"status"`
	AttemptCount int               `json:"attempt_count"`
	LastCallAt   *time.Time        `json:"last_call_at,omitempty"`
	Position     int               `json:"position"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type listContactsResponse struct {
	Contacts []contactResponse `json:"contacts"`
}

type attemptResponse struct {
	ID         uuid.UUID `json:"id"`
	AttemptNum int       `json:"attempt_num"`
	Answered   bool      `json:"answered"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type listAttemptsResponse struct {
	Attempts []attemptResponse `json:"attempts"`
	NextPage string            `json:"next_page_token,omitempty"`
}

type callOutcomeResponse struct {
	ContactID uuid.UUID `json:"contact_id"`
	Answered  bool      `json:"answered"`
}

func (h *HandlerSet) createContact(ctx *fiber.Ctx) error {
	var req createContactRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	contact, err := h.contacts.Create(ctx.Context(), contactsvc.CreateContactInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Notes:    req.Notes,
		Priority: req.Priority,
	})
	if err != nil {
		return translateError(err)
	}

	return ctx.Status(http.StatusCreated).JSON(toContactResponse(contact))
}

func (h *HandlerSet) listContacts(ctx *fiber.Ctx) error {
	contacts, err := h.contacts.List(ctx.Context())
	if err != nil {
		return translateError(err)
	}

	resp := listContactsResponse{Contacts: make([]contactResponse, 0, len(contacts))}
	for i := range contacts {
		resp.Contacts = append(resp.Contacts, toContactResponse(&contacts[i]))
	}
	return ctx.Status(http.StatusOK).JSON(resp)
}

func (h *HandlerSet) getContact(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid contact id")
	}

	contact, err := h.contacts.Get(ctx.Context(), id)
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(toContactResponse(contact))
}

func (h *HandlerSet) updateContact(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid contact id")
	}

	var req updateContactRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	contact, err := h.contacts.Update(ctx.Context(), contactsvc.UpdateContactInput{
		ID:       id,
		Name:     req.Name,
		Phone:    req.Phone,
		Notes:    req.Notes,
		Priority: req.Priority,
	})
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(toContactResponse(contact))
}

func (h *HandlerSet) deleteContact(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid contact id")
	}

	if err := h.contacts.Delete(ctx.Context(), id); err != nil {
		return translateError(err)
	}
	return ctx.SendStatus(http.StatusNoContent)
}

func (h *HandlerSet) callContact(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid contact id")
	}

	answered, err := h.dialer.Dial(ctx.Context(), id)
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(callOutcomeResponse{ContactID: id, Answered: answered})
}

func (h *HandlerSet) listAttempts(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid contact id")
	}

	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	pagingState, err := contactsvc.DecodePagingState(ctx.Query("page_token"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid page token")
	}

	page, err := h.contacts.ListAttempts(ctx.Context(), id, limit, pagingState)
	if err != nil {
		return translateError(err)
	}

	resp := listAttemptsResponse{
		Attempts: make([]attemptResponse, 0, len(page.Attempts)),
		NextPage: contactsvc.EncodePagingState(page.PagingState),
	}
	for _, a := range page.Attempts {
		resp.Attempts = append(resp.Attempts, attemptResponse{
			ID:         a.ID,
			AttemptNum: a.AttemptNum,
			Answered:   a.Answered,
			Error:      a.Error,
			DurationMs: a.Duration.Milliseconds(),
			CreatedAt:  a.CreatedAt,
		})
	}
	return ctx.Status(http.StatusOK).JSON(resp)
}

func toContactResponse(contact *domain.Contact) contactResponse {
	return contactResponse{
		ID:           contact.ID,
		Name:         contact.Name,
		Phone:        contact.Phone,
		Notes:        contact.Notes,
		Priority:     contact.Priority,
		Status:       contact.Status,
		AttemptCount: contact.AttemptCount,
		LastCallAt:   contact.LastCallAt,
		Position:     contact.Position,
		CreatedAt:    contact.CreatedAt,
		UpdatedAt:    contact.UpdatedAt,
	}
}
