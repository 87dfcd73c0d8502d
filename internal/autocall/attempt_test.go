package autocall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sandra-1136/client-calling/internal/callbridge"
	"github.com/Sandra-1136/client-calling/internal/domain"
)

type fixedBridge struct {
	result callbridge.Result
	err    error
	delay  time.Duration
}

func (b *fixedBridge) PlaceCall(ctx context.Context, contact domain.Contact) (callbridge.Result, error) {
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return callbridge.Result{}, ctx.Err()
		}
	}
	return b.result, b.err
}

func attemptEngine(t *testing.T, bridge callbridge.Provider, timeout time.Duration) *Engine {
	t.Helper()
	cfg := testConfig()
	cfg.AttemptTimeout = timeout
	return New(context.Background(), newFakeStore(), bridge, nil, nil, cfg, testLogger(t))
}

func TestAttemptAnswered(t *testing.T) {
	bridge := &fixedBridge{result: callbridge.Result{Answered: true, Duration: 3 * time.Second}}
	e := attemptEngine(t, bridge, 50*time.Millisecond)

	out := e.attempt(context.Background(), domain.Contact{Name: "alice"})
	if !out.answered {
		t.Fatalf("expected answered")
	}
	if out.duration != 3*time.Second {
		t.Fatalf("expected reported duration to win, got %v", out.duration)
	}
	if out.errMsg != "" {
		t.Fatalf("unexpected error message %q", out.errMsg)
	}
}

func TestAttemptTransportErrorIsUnanswered(t *testing.T) {
	bridge := &fixedBridge{result: callbridge.Result{Answered: true}, err: errors.New("carrier rejected")}
	e := attemptEngine(t, bridge, 50*time.Millisecond)

	out := e.attempt(context.Background(), domain.Contact{Name: "alice"})
	if out.answered {
		t.Fatalf("transport error must settle as unanswered")
	}
	if out.errMsg != "carrier rejected" {
		t.Fatalf("expected transport error message, got %q", out.errMsg)
	}
}

func TestAttemptDeadlineWins(t *testing.T) {
	bridge := &fixedBridge{result: callbridge.Result{Answered: true}, delay: 500 * time.Millisecond}
	e := attemptEngine(t, bridge, 20*time.Millisecond)

	started := time.Now()
	out := e.attempt(context.Background(), domain.Contact{Name: "alice"})
	elapsed := time.Since(started)

	if out.answered {
		t.Fatalf("expected deadline to settle the attempt unanswered")
	}
	if out.errMsg != "no answer within deadline" {
		t.Fatalf("unexpected error message %q", out.errMsg)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("attempt did not return at the deadline, took %v", elapsed)
	}
}

func TestAttemptMeasuresDurationWhenBridgeReportsNone(t *testing.T) {
	bridge := &fixedBridge{result: callbridge.Result{Answered: true}, delay: 5 * time.Millisecond}
	e := attemptEngine(t, bridge, 100*time.Millisecond)

	out := e.attempt(context.Background(), domain.Contact{Name: "alice"})
	if !out.answered {
		t.Fatalf("expected answered")
	}
	if out.duration <= 0 {
		t.Fatalf("expected measured duration, got %v", out.duration)
	}
}
