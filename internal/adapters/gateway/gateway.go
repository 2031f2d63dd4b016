// Package gateway implements the HTTP client for the external scoring
// gateway.
//
// The gateway owns the fusion algorithm; this client only speaks the
// request/response contract. All payloads are JSON with field names fixed
// by the gateway's schema (see the domain model's struct tags).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/grit/internal/domain/model"
)

// Default client configuration constants.
const (
	defaultTimeout = 5 * time.Second
)

// Client talks to one scoring gateway instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a Client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// createSessionResponse mirrors the gateway schema for POST /v1/sessions.
type createSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

// telemetryRequest mirrors the gateway schema for telemetry submission.
type telemetryRequest struct {
	Packets []model.FeaturePacket `json:"packets"`
	Context model.GameContext     `json:"game_context"`
}

// scoresResponse is shared by telemetry submission and score polling.
type scoresResponse struct {
	Success bool                `json:"success"`
	Scores  []model.ScorePacket `json:"scores"`
	Message string              `json:"message,omitempty"`
}

// eventRequest mirrors the gateway schema for POST .../events.
type eventRequest struct {
	Type    string         `json:"type"`
	Outcome string         `json:"outcome,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type ackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Healthy bool `json:"healthy"`
}

// CreateSession registers a new session and returns the gateway-assigned
// session id (which echoes the config's id on current gateways).
func (c *Client) CreateSession(ctx context.Context, cfg model.SessionConfig) (string, error) {
	var resp createSessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", cfg, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: session rejected: %s", ErrGateway, resp.Message)
	}
	return resp.SessionID, nil
}

// SubmitTelemetry sends a batch of feature packets with the current game
// context and returns any fused scores the gateway produced for them.
func (c *Client) SubmitTelemetry(ctx context.Context, sessionID string, packets []model.FeaturePacket, gameCtx model.GameContext) ([]model.ScorePacket, error) {
	req := telemetryRequest{Packets: packets, Context: gameCtx}
	var resp scoresResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/telemetry", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: telemetry rejected: %s", ErrGateway, resp.Message)
	}
	return resp.Scores, nil
}

// PollScores fetches the latest fused scores for the session.
func (c *Client) PollScores(ctx context.Context, sessionID string) ([]model.ScorePacket, error) {
	var resp scoresResponse
	if err := c.do(ctx, http.MethodGet, "/v1/sessions/"+sessionID+"/scores", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: poll rejected: %s", ErrGateway, resp.Message)
	}
	return resp.Scores, nil
}

// LogEvent records a discrete game event against the session.
func (c *Client) LogEvent(ctx context.Context, sessionID, eventType, outcome string, meta map[string]any) error {
	req := eventRequest{Type: eventType, Outcome: outcome, Meta: meta}
	var resp ackResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/events", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: event rejected: %s", ErrGateway, resp.Message)
	}
	return nil
}

// SendCoachingCue forwards an advisory cue for the session.
func (c *Client) SendCoachingCue(ctx context.Context, sessionID string, cue model.CoachingCue) error {
	var resp ackResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/cues", cue, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: cue rejected: %s", ErrGateway, resp.Message)
	}
	return nil
}

// HealthCheck pings the gateway. A nil return means healthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return err
	}
	if !resp.Healthy {
		return fmt.Errorf("%w: gateway reports unhealthy", ErrGateway)
	}
	return nil
}

// EndSession terminates the session on the gateway.
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	var resp ackResponse
	if err := c.do(ctx, http.MethodDelete, "/v1/sessions/"+sessionID, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: end session rejected: %s", ErrGateway, resp.Message)
	}
	return nil
}

// do performs one JSON round-trip. Transport faults and non-2xx statuses
// are wrapped in ErrGateway so callers can classify with errors.Is.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s %s returned %d", ErrGateway, method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrGateway, err)
		}
	}
	return nil
}
