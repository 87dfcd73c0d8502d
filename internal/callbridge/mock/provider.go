package mock

import (
	"context"
	"math/rand"
	"time"

	"github.com/Sandra-1136/client-calling/internal/callbridge"
	"github.com/Sandra-1136/client-calling/internal/config"
	"github.com/Sandra-1136/client-calling/internal/domain"
)

// Provider simulates the hosted calling backend.
type Provider struct {
	answerRate float64
	rng        *rand.Rand
}

// NewProvider constructs a mock provider.
func NewProvider(cfg config.CallBridgeConfig) *Provider {
	rate := cfg.AnswerRate
	if rate <= 0 || rate > 1 {
		rate = 0.7
	}
	return &Provider{
		answerRate: rate,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PlaceCall simulates ringing for a few seconds before answering or not.
func (p *Provider) PlaceCall(ctx context.Context, contact domain.Contact) (callbridge.Result, error) {
	ring := time.Duration(1+p.rng.Intn(5)) * time.Second

	select {
	case <-ctx.Done():
		return callbridge.Result{Answered: false, Duration: ring, Error: ctx.Err().Error()}, ctx.Err()
	case <-time.After(ring):
	}

	answered := p.rng.Float64() <= p.answerRate
	return callbridge.Result{Answered: answered, Duration: ring}, nil
}
