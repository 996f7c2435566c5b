package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubChannel struct {
	name string
	err  error
	wait time.Duration
}

func (c *stubChannel) Name() string { return c.name }
func (c *stubChannel) Send(ctx context.Context, m Message) error {
	if c.wait > 0 {
		time.Sleep(c.wait)
	}
	return c.err
}

func TestDispatchIsolatesFailures(t *testing.T) {
	chans := []Channel{
		&stubChannel{name: "a"},
		&stubChannel{name: "b", err: errors.New("boom")},
		&stubChannel{name: "c"},
	}
	rs := Dispatch(context.Background(), chans, Message{AlertName: "rows"})
	if len(rs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(rs))
	}
	if !rs[0].Sent || rs[1].Sent || !rs[2].Sent {
		t.Fatalf("unexpected outcomes: %+v", rs)
	}
	if rs[1].Channel != "b" || rs[1].Err == nil {
		t.Fatalf("expected failure recorded for b: %+v", rs[1])
	}
}

func TestSlackChannelPostsText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	ch := &SlackChannel{WebhookURL: srv.URL}
	err := ch.Send(context.Background(), Message{
		Severity:  "critical",
		AlertName: "row count",
		Summary:   "0 rows returned",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["text"] == "" {
		t.Fatalf("expected text payload, got %v", got)
	}
}

func TestWebhookChannelSignsBody(t *testing.T) {
	secret := "s3cret"
	var sig string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get("X-BI-Signature")
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	ch := &WebhookChannel{Endpoint: srv.URL, Secret: secret}
	if err := ch.Send(context.Background(), Message{AlertName: "rows"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	want := "sha256=" + hex.EncodeToString(h.Sum(nil))
	if sig != want {
		t.Fatalf("signature mismatch: got %s want %s", sig, want)
	}
}

func TestWebhookChannelErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := &WebhookChannel{Endpoint: srv.URL}
	if err := ch.Send(context.Background(), Message{}); err == nil {
		t.Fatalf("expected error for 502")
	}
}
