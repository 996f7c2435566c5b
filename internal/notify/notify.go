// Package notify delivers alert notifications over user-configured channels.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/faciam-dev/gridbi/pkg/metrics"
)

// Message is an alert notification payload.
type Message struct {
	QueryName string    `json:"queryName"`
	AlertName string    `json:"alertName"`
	Severity  string    `json:"severity"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
	Time      time.Time `json:"time"`
}

// Channel delivers a message to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

// Result records the outcome of one channel delivery.
type Result struct {
	Channel string
	Sent    bool
	Err     error
}

// Dispatch sends the message to every channel concurrently. A slow or
// failing channel never delays or suppresses the others; the caller gets
// one result per channel.
func Dispatch(ctx context.Context, channels []Channel, m Message) []Result {
	results := make([]Result, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			err := ch.Send(ctx, m)
			results[i] = Result{Channel: ch.Name(), Sent: err == nil, Err: err}
			status := "sent"
			if err != nil {
				status = "failed"
			}
			metrics.AlertNotifications.WithLabelValues(ch.Name(), status).Inc()
		}(i, ch)
	}
	wg.Wait()
	return results
}
