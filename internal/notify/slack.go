package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackChannel posts to a Slack incoming webhook.
type SlackChannel struct {
	WebhookURL string
	Client     *http.Client
}

func (c *SlackChannel) Name() string { return "slack" }

func (c *SlackChannel) Send(ctx context.Context, m Message) error {
	if c == nil || c.WebhookURL == "" {
		return nil
	}
	text := fmt.Sprintf("[%s] %s: %s", m.Severity, m.AlertName, m.Summary)
	if m.Detail != "" {
		text += "\n" + m.Detail
	}
	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	cli := c.Client
	if cli == nil {
		cli = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := cli.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack: %s", resp.Status)
	}
	return nil
}
