package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultOutboundCallURL = "https://api.elevenlabs.io/v1/convai/twilio/outbound-call"

var ErrNotConfigured = errors.New("elevenlabs api key not configured")

// APIError is a non-2xx reply from the platform.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs api error %d: %s", e.Status, e.Body)
}

type Client struct {
	apiKey        string
	agentID       string
	phoneNumberID string
	client        *http.Client
	logger        *slog.Logger
	apiURL        string
}

func NewClient(apiKey, agentID, phoneNumberID string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:        apiKey,
		agentID:       agentID,
		phoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
		apiURL:        defaultOutboundCallURL,
	}
}

func (c *Client) Configured() bool { return c.apiKey != "" }

// OutboundCall asks the agent to phone toNumber (E.164) and returns the
// platform's JSON reply.
func (c *Client) OutboundCall(ctx context.Context, toNumber string) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{
		"agent_id":              c.agentID,
		"agent_phone_number_id": c.phoneNumberID,
		"to_number":             toNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal outbound call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("outbound call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("outbound call rejected", "status", resp.StatusCode, "body", string(respBody))
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("outbound call: response is not JSON")
	}

	c.logger.Info("outbound call initiated", "agent_id", c.agentID)
	return respBody, nil
}
