package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookChannel posts the message as JSON to an arbitrary endpoint,
// signing the body when a secret is configured.
type WebhookChannel struct {
	Endpoint string
	Secret   string
	Client   *http.Client
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Send(ctx context.Context, m Message) error {
	if c == nil || c.Endpoint == "" {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	cli := c.Client
	if cli == nil {
		cli = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Secret != "" {
		h := hmac.New(sha256.New, []byte(c.Secret))
		h.Write(data)
		sig := hex.EncodeToString(h.Sum(nil))
		req.Header.Set("X-BI-Signature", "sha256="+sig)
	}
	resp, err := cli.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: %s", resp.Status)
	}
	return nil
}
