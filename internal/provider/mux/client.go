// Package mux is a thin REST client for the Mux Video live-stream API. Only
// the three lifecycle calls the service needs are implemented: create, delete
// and status-by-id.
package mux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StatusActive is the provider status meaning ingest is receiving media.
const StatusActive = "active"

// LiveStream is the provider-side live ingest endpoint.
type LiveStream struct {
	ID         string // provider identifier for lifecycle calls
	StreamKey  string // secret ingest credential
	PlaybackID string // public playback identifier
	Status     string
}

// Client talks to the Mux Video API with token-id/token-secret basic auth.
type Client struct {
	baseURL     string
	tokenID     string
	tokenSecret string
	http        *http.Client
	log         *zap.Logger
}

// NewClient creates a Mux client. The zero-credential client reports
// Enabled() == false and must not be called.
func NewClient(baseURL, tokenID, tokenSecret string, log *zap.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		tokenID:     tokenID,
		tokenSecret: tokenSecret,
		http:        &http.Client{Timeout: 15 * time.Second},
		log:         log,
	}
}

// Enabled reports whether provider credentials are configured.
func (c *Client) Enabled() bool {
	return c.tokenID != "" && c.tokenSecret != ""
}

type liveStreamPayload struct {
	ID          string `json:"id"`
	StreamKey   string `json:"stream_key"`
	Status      string `json:"status"`
	Passthrough string `json:"passthrough"`
	PlaybackIDs []struct {
		ID     string `json:"id"`
		Policy string `json:"policy"`
	} `json:"playback_ids"`
}

type dataEnvelope struct {
	Data liveStreamPayload `json:"data"`
}

// Create provisions a live ingest endpoint tagged with the passthrough
// correlation value (the memorial's public slug).
func (c *Client) Create(ctx context.Context, passthrough string) (*LiveStream, error) {
	body := map[string]interface{}{
		"playback_policy":    []string{"public"},
		"new_asset_settings": map[string]interface{}{"playback_policy": []string{"public"}},
		"passthrough":        passthrough,
		"latency_mode":       "standard",
		"reconnect_window":   60,
	}
	var env dataEnvelope
	if err := c.do(ctx, http.MethodPost, "/video/v1/live-streams", body, &env); err != nil {
		return nil, err
	}
	ls := &LiveStream{
		ID:        env.Data.ID,
		StreamKey: env.Data.StreamKey,
		Status:    env.Data.Status,
	}
	if len(env.Data.PlaybackIDs) > 0 {
		ls.PlaybackID = env.Data.PlaybackIDs[0].ID
	}
	if ls.ID == "" || ls.StreamKey == "" || ls.PlaybackID == "" {
		return nil, fmt.Errorf("mux: create returned incomplete live stream")
	}
	return ls, nil
}

// Delete removes a provider-side live stream. 404 counts as success so
// teardown stays idempotent.
func (c *Client) Delete(ctx context.Context, liveStreamID string) error {
	err := c.do(ctx, http.MethodDelete, "/video/v1/live-streams/"+liveStreamID, nil, nil)
	if se, ok := err.(*statusError); ok && se.code == http.StatusNotFound {
		return nil
	}
	return err
}

// GetStatus returns the provider-reported status for a live stream, or ""
// when the provider does not know the id.
func (c *Client) GetStatus(ctx context.Context, liveStreamID string) (string, error) {
	var env dataEnvelope
	err := c.do(ctx, http.MethodGet, "/video/v1/live-streams/"+liveStreamID, nil, &env)
	if err != nil {
		if se, ok := err.(*statusError); ok && se.code == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	return env.Data.Status, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("mux: unexpected status %d", e.code)
	}
	return fmt.Sprintf("mux: unexpected status %d: %s", e.code, e.body)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mux: marshal request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("mux: build request: %w", err)
	}
	req.SetBasicAuth(c.tokenID, c.tokenSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mux: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("mux: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mux: decode response: %w", err)
	}
	return nil
}
