package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/faciam-dev/gridbi/internal/events"
	"github.com/faciam-dev/gridbi/internal/tenant"
)

type failSink struct{ count int }

func (f *failSink) Emit(ctx context.Context, e events.Event) error {
	f.count++
	return errors.New("fail")
}

func TestRetry(t *testing.T) {
	s := &failSink{}
	d := events.NewDispatcher(events.Config{Retry: events.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}}, nil, s)
	d.Dispatch(context.Background(), events.Event{Name: events.WidgetCreated})
	time.Sleep(20 * time.Millisecond)
	if s.count != 2 {
		t.Fatalf("attempts=%d", s.count)
	}
}

func TestWebhookSignature(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Errorf("no body")
		}
		gotSig = r.Header.Get("X-BI-Signature")
	}))
	defer srv.Close()
	wh := events.NewWebhookSink(events.WebhookConfig{Enabled: true, Endpoint: srv.URL, Secret: "s"})
	evt := events.Event{Name: events.LayoutSaved}
	if err := wh.Emit(context.Background(), evt); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if gotSig == "" {
		t.Fatalf("missing signature")
	}
}

func TestRedisSink(t *testing.T) {
	s := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: s.Addr()})
	sink := &events.RedisSink{Client: cli, Channel: "bi"}
	sub := cli.Subscribe(context.Background(), "bi")
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("sub: %v", err)
	}
	evt := events.Event{Name: events.AlertTriggered}
	if err := sink.Emit(context.Background(), evt); err != nil {
		t.Fatalf("emit: %v", err)
	}
	select {
	case msg := <-sub.Channel():
		var got events.Event
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Name != evt.Name {
			t.Fatalf("event mismatch: %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout")
	}
}

func TestDLQPlaceholdersByDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	q := &events.SQLDLQ{DB: db, Driver: "postgres", TablePrefix: "gridbi_"}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO gridbi_events_failed(name, payload, attempts, last_error) VALUES ($1, $2, $3, $4)")).
		WithArgs(events.WidgetCreated, sqlmock.AnyArg(), 3, "boom").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := q.Store(context.Background(), events.Event{Name: events.WidgetCreated}, 3, "boom"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	q.Driver = "mysql"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO gridbi_events_failed(name, payload, attempts, last_error) VALUES (?, ?, ?, ?)")).
		WithArgs(events.WidgetCreated, sqlmock.AnyArg(), 3, "boom").
		WillReturnResult(sqlmock.NewResult(2, 1))

	if err := q.Store(context.Background(), events.Event{Name: events.WidgetCreated}, 3, "boom"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

type captureSink struct{ ch chan events.Event }

func (c *captureSink) Emit(ctx context.Context, e events.Event) error {
	c.ch <- e
	return nil
}

func TestEmitStampsTenantAndID(t *testing.T) {
	cs := &captureSink{ch: make(chan events.Event, 1)}
	prev := events.Default
	events.Default = events.NewDispatcher(events.Config{}, nil, cs)
	defer func() { events.Default = prev }()

	ctx := tenant.WithTenant(context.Background(), "t1")
	events.Emit(ctx, events.Event{Name: events.WidgetCreated})

	select {
	case e := <-cs.ch:
		if e.Tenant != "t1" {
			t.Fatalf("tenant not stamped: %+v", e)
		}
		if e.ID == "" || e.Time.IsZero() {
			t.Fatalf("id/time not stamped: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}
