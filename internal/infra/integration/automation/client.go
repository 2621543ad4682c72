package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xavierca1/leadflow/internal/usecase"
)

// Client posts undelivered leads to an automation webhook (n8n, Zapier,
// Make). Used directly when no queue is configured and by the queue worker
// otherwise.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Dispatch satisfies usecase.FallbackDispatcher by posting synchronously.
func (c *Client) Dispatch(ctx context.Context, p usecase.FallbackPayload) error {
	return c.Post(ctx, p.WebhookURL, p)
}

func (c *Client) Post(ctx context.Context, webhookURL string, p usecase.FallbackPayload) error {
	if webhookURL == "" {
		return fmt.Errorf("automation webhook url is empty")
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal fallback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Leadflow-Event", "lead.undelivered")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
