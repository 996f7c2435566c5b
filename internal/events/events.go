package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/faciam-dev/gridbi/internal/tenant"
)

// Default is the global dispatcher used by Emit. It stays nil when no
// sink is configured and Emit becomes a no-op.
var Default *Dispatcher

// Event is one change notification (widget saved, alert triggered, ...).
type Event struct {
	Name   string    `json:"name"`
	Tenant string    `json:"tenant,omitempty"`
	Time   time.Time `json:"time"`
	Data   any       `json:"data"`
	ID     string    `json:"id"`
}

// Sink publishes events.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// DLQ stores failed events.
type DLQ interface {
	Store(ctx context.Context, e Event, attempts int, lastErr string) error
}

// Dispatcher fans an event out to every configured sink. Each sink gets
// its own goroutine and retry schedule; one slow sink never delays the
// others or the request that emitted the event.
type Dispatcher struct {
	sinks        []Sink
	maxAttempts  int
	initialDelay time.Duration
	dlq          DLQ
}

// Config provides dispatcher settings.
type Config struct {
	Sinks struct {
		Webhook WebhookConfig `yaml:"webhook"`
		Redis   RedisConfig   `yaml:"redis"`
		Kafka   KafkaConfig   `yaml:"kafka"`
	} `yaml:"sinks"`
	Retry RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
}

// NewDispatcher creates a dispatcher from sinks and retry config.
func NewDispatcher(cfg Config, dlq DLQ, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{maxAttempts: 3, initialDelay: time.Second}
	if cfg.Retry.MaxAttempts > 0 {
		d.maxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialDelay > 0 {
		d.initialDelay = cfg.Retry.InitialDelay
	}
	d.sinks = append(d.sinks, sinks...)
	d.dlq = dlq
	return d
}

// Emit stamps the event with the request tenant, a timestamp and an ID
// where missing and hands it to the global dispatcher.
func Emit(ctx context.Context, e Event) {
	if Default == nil {
		return
	}
	if e.Tenant == "" {
		e.Tenant = tenant.FromContext(ctx)
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	Default.Dispatch(ctx, e)
}

// Dispatch sends the event to all sinks without waiting for delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	for _, s := range d.sinks {
		sink := s
		go d.retrySend(ctx, sink, e)
	}
}

// retrySend delivers with exponential backoff; after maxAttempts the
// event lands in the dead letter queue instead of being dropped.
func (d *Dispatcher) retrySend(ctx context.Context, s Sink, e Event) {
	delay := d.initialDelay
	var err error
	for i := 1; i <= d.maxAttempts; i++ {
		if err = s.Emit(ctx, e); err == nil {
			return
		}
		time.Sleep(delay)
		delay *= 2
	}
	if d.dlq != nil {
		_ = d.dlq.Store(ctx, e, d.maxAttempts, err.Error())
	}
}

// SQLDLQ writes undeliverable events to the events_failed table so an
// operator can inspect and replay them.
type SQLDLQ struct {
	DB          *sql.DB
	Driver      string
	TablePrefix string
}

// Store inserts the failed event. The Driver string selects the
// placeholder style for the insert.
func (q *SQLDLQ) Store(ctx context.Context, e Event, attempts int, lastErr string) error {
	if q == nil || q.DB == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	tbl := q.TablePrefix + "events_failed"
	var stmt string
	if q.Driver == "postgres" {
		stmt = fmt.Sprintf("INSERT INTO %s(name, payload, attempts, last_error) VALUES ($1, $2, $3, $4)", tbl)
	} else {
		stmt = fmt.Sprintf("INSERT INTO %s(name, payload, attempts, last_error) VALUES (?, ?, ?, ?)", tbl)
	}
	_, err = q.DB.ExecContext(ctx, stmt, e.Name, string(data), attempts, lastErr)
	return err
}
