package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Sandra-1136/client-calling/internal/app"
	"github.com/Sandra-1136/client-calling/internal/autocall"
	contactsvc "github.com/Sandra-1136/client-calling/internal/service/contact"
)

// HandlerSet bundles all HTTP handlers.
type HandlerSet struct {
	container *app.Container
	contacts  *contactsvc.Service
	dialer    *autocall.Engine
}

// NewHandlerSet creates a new handler bundle.
func NewHandlerSet(container *app.Container) *HandlerSet {
	return &HandlerSet{
		container: container,
		contacts:  container.Services().Contacts,
		dialer:    container.Dialer(),
	}
}

// Register wires all routes onto the fiber app.
func (h *HandlerSet) Register(app *fiber.App) {
	app.Get("/healthz", h.health)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	contacts := v1.Group("/contacts")
	contacts.Post("/", h.createContact)
	contacts.Get("/", h.listContacts)
	contacts.Get("/:id", h.getContact)
	contacts.Put("/:id", h.updateContact)
	contacts.Delete("/:id", h.deleteContact)
	contacts.Post("/:id/call", h.callContact)
	contacts.Get("/:id/attempts", h.listAttempts)

	dialer := v1.Group("/dialer")
	dialer.Post("/start", h.startDialer)
	dialer.Post("/stop", h.stopDialer)
	dialer.Get("/", h.dialerState)

	v1.Get("/summary", h.summary)
	v1.Get("/stats/daily", h.dailyStats)
	v1.Post("/reset", h.resetSystem)
}

// ErrorHandler provides centralized error responses.
func (h *HandlerSet) ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code == fiber.StatusInternalServerError {
		h.container.Logger.Error("request failed", zap.Error(err))
	}

	return ctx.Status(code).JSON(fiber.Map{
		"error":    message,
		"trace_id": ctx.GetRespHeader("Trace-Id"),
	})
}

func (h *HandlerSet) health(ctx *fiber.Ctx) error {
	healthCtx, cancel := context.WithTimeout(ctx.Context(), 2*time.Second)
	defer cancel()

	errs := make(map[string]string)

	if err := h.container.Postgres.DB().PingContext(healthCtx); err != nil {
		errs["postgres"] = err.Error()
	}

	if err := h.container.Redis.Inner().Ping(healthCtx).Err(); err != nil {
		errs["redis"] = err.Error()
	}

	if err := h.container.Scylla.Session().Query("SELECT now() FROM system.local").WithContext(healthCtx).Exec(); err != nil {
		errs["scylla"] = err.Error()
	}

	status := fiber.StatusOK
	if len(errs) > 0 {
		status = fiber.StatusServiceUnavailable
	}

	return ctx.Status(status).JSON(fiber.Map{"status": "ok", "errors": errs})
}
