package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Sandra-1136/client-calling/internal/callbridge"
	"github.com/Sandra-1136/client-calling/internal/config"
	"github.com/Sandra-1136/client-calling/internal/domain"
)

// Provider talks to the hosted calling backend over HTTP.
type Provider struct {
	endpoint string
	client   *http.Client
}

// NewProvider constructs an HTTP-backed provider.
func NewProvider(cfg config.CallBridgeConfig) *Provider {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Provider{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type callRequest struct {
	ContactID string `json:"contact_id"`
	Phone     string `json:"phone"`
	Name      string `json:"name"`
}

type callResponse struct {
	Answered   bool   `json:"answered"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error"`
}

// PlaceCall posts the dial request and waits for the backend to report the
// answered/unanswered outcome. The surrounding context bounds the wait.
func (p *Provider) PlaceCall(ctx context.Context, contact domain.Contact) (callbridge.Result, error) {
	body, err := json.Marshal(callRequest{
		ContactID: contact.ID.String(),
		Phone:     contact.Phone,
		Name:      contact.Name,
	})
	if err != nil {
		return callbridge.Result{}, fmt.Errorf("call bridge: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return callbridge.Result{}, fmt.Errorf("call bridge: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return callbridge.Result{}, fmt.Errorf("call bridge: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return callbridge.Result{}, fmt.Errorf("call bridge: backend returned %d", resp.StatusCode)
	}

	var out callResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return callbridge.Result{}, fmt.Errorf("call bridge: decode response: %w", err)
	}

	return callbridge.Result{
		Answered: out.Answered,
		Duration: time.Duration(out.DurationMs) * time.Millisecond,
		Error:    out.Error,
	}, nil
}
