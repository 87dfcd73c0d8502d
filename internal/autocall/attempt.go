package autocall

import (
	"context"
	"time"

	"github.com/Sandra-1136/client-calling/internal/domain"
)

type attemptOutcome struct {
	answered bool
	duration time.Duration
	errMsg   string
}

// attempt races the bridge against the attempt deadline and returns the
// first resolution. The result channel is buffered so the losing branch
// parks its send in the buffer and can never overwrite a settled outcome.
// A transport error settles as unanswered, not as a failure.
func (e *Engine) attempt(ctx context.Context, contact domain.Contact) attemptOutcome {
	actx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
	defer cancel()

	results := make(chan attemptOutcome, 1)
	started := time.Now()

	go func() {
		res, err := e.bridge.PlaceCall(actx, contact)
		out := attemptOutcome{
			answered: res.Answered,
			duration: res.Duration,
			errMsg:   res.Error,
		}
		if err != nil {
			out.answered = false
			if out.errMsg == "" {
				out.errMsg = err.Error()
			}
		}
		results <- out
	}()

	select {
	case out := <-results:
		if out.duration <= 0 {
			out.duration = time.Since(started)
		}
		return out
	case <-actx.Done():
		return attemptOutcome{
			answered: false,
			duration: time.Since(started),
			errMsg:   "no answer within deadline",
		}
	}
}
