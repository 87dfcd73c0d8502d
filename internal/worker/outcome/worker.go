package outcome

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Sandra-1136/client-calling/internal/app"
	"github.com/Sandra-1136/client-calling/internal/domain"
	"github.com/Sandra-1136/client-calling/internal/queue"
)

// statsTTL keeps daily counters around long enough for the dashboard's
// 30-day history view.
const statsTTL = 31 * 24 * time.Hour

// Worker consumes call outcome events, appends them to the attempt journal
// and maintains per-day answered/missed counters in Redis.
type Worker struct {
	container *app.Container
}

// New creates a new outcome worker.
func New(container *app.Container) *Worker {
	return &Worker{container: container}
}

// Run processes outcome events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	cfg := w.container.Config
	groupID := cfg.Kafka.ConsumerGroupID + "-outcome"
	reader := w.container.Kafka.NewReader(cfg.Kafka.OutcomeTopic, groupID)
	defer reader.Close()

	journal := w.container.Repositories().Attempts
	redisClient := w.container.Redis.Inner()
	logger := w.container.Logger

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("outcome worker: fetch", zap.Error(err))
			continue
		}

		var outcome queue.OutcomeMessage
		if err := json.Unmarshal(msg.Value, &outcome); err != nil {
			logger.Error("outcome worker: unmarshal", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		tracer := otel.Tracer("outreach.outcomeworker")
		sctx, span := tracer.Start(ctx, "call.outcome", trace.WithAttributes(
			attribute.String("contact.id", outcome.ContactID.String()),
			attribute.Int("attempt", outcome.Attempt),
			attribute.Bool("answered", outcome.Answered),
		))

		attempt := domain.CallAttempt{
			ID:         uuid.New(),
			ContactID:  outcome.ContactID,
			AttemptNum: outcome.Attempt,
			Answered:   outcome.Answered,
			Error:      outcome.Error,
			Duration:   time.Duration(outcome.DurationMs) * time.Millisecond,
			CreatedAt:  outcome.OccurredAt,
		}
		if err := journal.Append(sctx, attempt); err != nil {
			span.RecordError(err)
			logger.Error("outcome worker: append attempt", zap.Error(err))
		}

		key := dailyStatsKey(outcome.OccurredAt, outcome.Answered)
		if err := redisClient.Incr(sctx, key).Err(); err != nil {
			span.RecordError(err)
			logger.Error("outcome worker: bump counter", zap.String("key", key), zap.Error(err))
		} else {
			_ = redisClient.Expire(sctx, key, statsTTL).Err()
		}

		if err := reader.CommitMessages(sctx, msg); err != nil {
			span.RecordError(err)
			logger.Error("outcome worker: commit", zap.Error(err))
		}
		span.End()
	}
}

func dailyStatsKey(at time.Time, answered bool) string {
	bucket := "missed"
	if answered {
		bucket = "answered"
	}
	return fmt.Sprintf("outreach:stats:%s:%s", at.UTC().Format("2006-01-02"), bucket)
}
