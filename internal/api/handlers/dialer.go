package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/Sandra-1136/client-calling/internal/domain"
)

func isRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

type dialerStateResponse struct {
	Active    bool       `json:"active"`
	Round     int        `json:"round"`
	Position  int        `json:"position"`
	CallingID *uuid.UUID `json:"calling_id,omitempty"`
}

type summaryResponse struct {
	Total    int64 `json:"total"`
	Answered int64 `json:"answered"`
	Missed   int64 `json:"missed"`
	Pending  int64 `json:"pending"`
	Calling  int64 `json:"calling"`
}

type dailyStatsResponse struct {
	Date     string `json:"date"`
	Answered int64  `json:"answered"`
	Missed   int64  `json:"missed"`
}

func (h *HandlerSet) startDialer(ctx *fiber.Ctx) error {
	started := h.dialer.Start(ctx.Context())
	status := http.StatusAccepted
	if !started {
		// precondition failed: already active, empty contact list or lease held
		status = http.StatusConflict
	}
	return ctx.Status(status).JSON(toDialerState(h.dialer.Snapshot()))
}

func (h *HandlerSet) stopDialer(ctx *fiber.Ctx) error {
	h.dialer.Stop(ctx.Context())
	return ctx.Status(http.StatusOK).JSON(toDialerState(h.dialer.Snapshot()))
}

func (h *HandlerSet) dialerState(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusOK).JSON(toDialerState(h.dialer.Snapshot()))
}

func (h *HandlerSet) summary(ctx *fiber.Ctx) error {
	summary, err := h.contacts.Summary(ctx.Context())
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(summaryResponse{
		Total:    summary.Total,
		Answered: summary.Answered,
		Missed:   summary.Missed,
		Pending:  summary.Pending,
		Calling:  summary.Calling,
	})
}

func (h *HandlerSet) dailyStats(ctx *fiber.Ctx) error {
	date := ctx.Query("date", time.Now().UTC().Format("2006-01-02"))
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	redisClient := h.container.Redis.Inner()
	answered, err := redisClient.Get(ctx.Context(), fmt.Sprintf("outreach:stats:%s:answered", date)).Int64()
	if err != nil && !isRedisNil(err) {
		return translateError(err)
	}
	missed, err := redisClient.Get(ctx.Context(), fmt.Sprintf("outreach:stats:%s:missed", date)).Int64()
	if err != nil && !isRedisNil(err) {
		return translateError(err)
	}

	return ctx.Status(http.StatusOK).JSON(dailyStatsResponse{
		Date:     date,
		Answered: answered,
		Missed:   missed,
	})
}

func (h *HandlerSet) resetSystem(ctx *fiber.Ctx) error {
	h.dialer.Stop(ctx.Context())
	if err := h.contacts.Reset(ctx.Context()); err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "reset"})
}

func toDialerState(snap domain.RunSnapshot) dialerStateResponse {
	return dialerStateResponse{
		Active:    snap.Active,
		Round:     snap.Round,
		Position:  snap.Position,
		CallingID: snap.CallingID,
	}
}
