package dbqa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/faciam-dev/gridbi/internal/connections"
	"github.com/faciam-dev/gridbi/internal/notify"
)

type fakeStore struct {
	query         Query
	alerts        []Alert
	executions    []Execution
	transitions   []Status
	lastTriggered *time.Time
	notifications []Notification
}

func (s *fakeStore) GetQuery(ctx context.Context, tenant string, id int64) (Query, error) {
	return s.query, nil
}

func (s *fakeStore) ListQueriesByFrequency(ctx context.Context, f Frequency) ([]Query, error) {
	return []Query{s.query}, nil
}

func (s *fakeStore) RecordExecution(ctx context.Context, e Execution) (int64, error) {
	s.executions = append(s.executions, e)
	return int64(len(s.executions)), nil
}

func (s *fakeStore) AlertsForQuery(ctx context.Context, queryID int64) ([]Alert, error) {
	return s.alerts, nil
}

func (s *fakeStore) GetAlert(ctx context.Context, tenant string, id int64) (Alert, error) {
	for _, a := range s.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return Alert{}, errors.New("not found")
}

func (s *fakeStore) SetAlertStatus(ctx context.Context, alertID int64, from, to Status, note string, lastTriggered *time.Time, snoozedUntil *time.Time) error {
	s.transitions = append(s.transitions, to)
	if lastTriggered != nil {
		s.lastTriggered = lastTriggered
	}
	return nil
}

func (s *fakeStore) RecordNotification(ctx context.Context, n Notification) error {
	s.notifications = append(s.notifications, n)
	return nil
}

type fakeExec struct {
	res connections.Result
	err error
}

func (e *fakeExec) Execute(ctx context.Context, tenant string, connID int64, queryText string) (connections.Result, error) {
	return e.res, e.err
}

type recordChannel struct {
	name string
	err  error
	sent int
}

func (c *recordChannel) Name() string { return c.name }
func (c *recordChannel) Send(ctx context.Context, m notify.Message) error {
	c.sent++
	return c.err
}

func engineWith(store *fakeStore, exec *fakeExec, chans []notify.Channel, now time.Time) *Engine {
	return &Engine{
		Store: store,
		Exec:  exec,
		Channels: func(names []string) []notify.Channel {
			return chans
		},
		Now: func() time.Time { return now },
	}
}

func TestThrottleSuppressesWithinWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-30 * time.Minute)
	store := &fakeStore{
		query: Query{ID: 1, TenantID: "t1", Name: "rows"},
		alerts: []Alert{{
			ID:              10,
			QueryID:         1,
			Name:            "empty table",
			Condition:       Condition{Type: CondRowCount, Operator: OpEq, Value: "0"},
			Severity:        SevCritical,
			Channels:        []string{"slack"},
			ThrottleMinutes: 60,
			Status:          StatusActive,
			LastTriggeredAt: &last,
		}},
	}
	ch := &recordChannel{name: "slack"}
	eng := engineWith(store, &fakeExec{res: connections.Result{RowCount: 0}}, []notify.Channel{ch}, now)

	rep, err := eng.RunQuery(context.Background(), "t1", 1)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if len(rep.Alerts) != 1 || !rep.Alerts[0].Triggered || !rep.Alerts[0].Throttled {
		t.Fatalf("expected triggered+throttled, got %+v", rep.Alerts)
	}
	if ch.sent != 0 {
		t.Fatalf("expected no notification within throttle window, got %d", ch.sent)
	}
	if len(store.notifications) != 0 {
		t.Fatalf("expected no notification records, got %d", len(store.notifications))
	}
}

func TestThrottleExpiredNotifies(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-61 * time.Minute)
	store := &fakeStore{
		query: Query{ID: 1, TenantID: "t1", Name: "rows"},
		alerts: []Alert{{
			ID:              10,
			QueryID:         1,
			Name:            "empty table",
			Condition:       Condition{Type: CondRowCount, Operator: OpEq, Value: "0"},
			Severity:        SevCritical,
			Channels:        []string{"slack"},
			ThrottleMinutes: 60,
			Status:          StatusActive,
			LastTriggeredAt: &last,
		}},
	}
	ch := &recordChannel{name: "slack"}
	eng := engineWith(store, &fakeExec{res: connections.Result{RowCount: 0}}, []notify.Channel{ch}, now)

	rep, err := eng.RunQuery(context.Background(), "t1", 1)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if rep.Alerts[0].Throttled {
		t.Fatalf("expected throttle expired")
	}
	if ch.sent != 1 {
		t.Fatalf("expected 1 notification, got %d", ch.sent)
	}
	if len(store.notifications) != 1 || store.notifications[0].Status != "sent" {
		t.Fatalf("unexpected notification records: %+v", store.notifications)
	}
	if store.lastTriggered == nil || !store.lastTriggered.Equal(now) {
		t.Fatalf("lastTriggeredAt not advanced: %v", store.lastTriggered)
	}
}

func TestPartialChannelFailureRecordedIndependently(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		query: Query{ID: 1, TenantID: "t1", Name: "rows"},
		alerts: []Alert{{
			ID:        10,
			QueryID:   1,
			Name:      "empty table",
			Condition: Condition{Type: CondRowCount, Operator: OpEq, Value: "0"},
			Severity:  SevWarning,
			Channels:  []string{"slack", "webhook"},
			Status:    StatusResolved,
		}},
	}
	good := &recordChannel{name: "slack"}
	bad := &recordChannel{name: "webhook", err: errors.New("502")}
	eng := engineWith(store, &fakeExec{res: connections.Result{RowCount: 0}}, []notify.Channel{good, bad}, now)

	if _, err := eng.RunQuery(context.Background(), "t1", 1); err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if len(store.notifications) != 2 {
		t.Fatalf("expected 2 notification records, got %d", len(store.notifications))
	}
	byChannel := map[string]string{}
	for _, n := range store.notifications {
		byChannel[n.Channel] = n.Status
		if n.Attempts != 1 {
			t.Fatalf("expected 1 attempt, got %d", n.Attempts)
		}
	}
	if byChannel["slack"] != "sent" || byChannel["webhook"] != "failed" {
		t.Fatalf("unexpected statuses: %v", byChannel)
	}
}

func TestClearedConditionResolvesActiveAlert(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		query: Query{ID: 1, TenantID: "t1"},
		alerts: []Alert{{
			ID:        10,
			QueryID:   1,
			Condition: Condition{Type: CondRowCount, Operator: OpEq, Value: "0"},
			Status:    StatusActive,
		}},
	}
	eng := engineWith(store, &fakeExec{res: connections.Result{RowCount: 5}}, nil, now)

	rep, err := eng.RunQuery(context.Background(), "t1", 1)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if rep.Alerts[0].Triggered {
		t.Fatalf("condition should not trigger")
	}
	if len(store.transitions) != 1 || store.transitions[0] != StatusResolved {
		t.Fatalf("expected resolved transition, got %v", store.transitions)
	}
}

func TestSnoozeSuppressesUntilExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(2 * time.Hour)
	store := &fakeStore{
		query: Query{ID: 1, TenantID: "t1"},
		alerts: []Alert{{
			ID:           10,
			QueryID:      1,
			Condition:    Condition{Type: CondRowCount, Operator: OpEq, Value: "0"},
			Channels:     []string{"slack"},
			Status:       StatusSnoozed,
			SnoozedUntil: &until,
		}},
	}
	ch := &recordChannel{name: "slack"}
	eng := engineWith(store, &fakeExec{res: connections.Result{RowCount: 0}}, []notify.Channel{ch}, now)

	if _, err := eng.RunQuery(context.Background(), "t1", 1); err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if ch.sent != 0 || len(store.transitions) != 0 {
		t.Fatalf("snoozed alert should be left alone, sent=%d transitions=%v", ch.sent, store.transitions)
	}
}

func TestErrorPresenceTriggersOnExecError(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		query: Query{ID: 1, TenantID: "t1"},
		alerts: []Alert{{
			ID:        10,
			QueryID:   1,
			Condition: Condition{Type: CondErrorPresence},
			Channels:  []string{"slack"},
			Status:    StatusResolved,
		}},
	}
	ch := &recordChannel{name: "slack"}
	eng := engineWith(store, &fakeExec{err: errors.New("table missing")}, []notify.Channel{ch}, now)

	rep, err := eng.RunQuery(context.Background(), "t1", 1)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if !rep.Alerts[0].Triggered {
		t.Fatalf("error_presence should trigger on execution error")
	}
	if rep.Error == "" {
		t.Fatalf("execution error should be recorded in the report")
	}
	if ch.sent != 1 {
		t.Fatalf("expected notification, got %d", ch.sent)
	}
}

func TestEvaluateSpecificValue(t *testing.T) {
	res := connections.Result{
		Rows:     []map[string]any{{"failed_jobs": 7.0}},
		RowCount: 1,
	}
	cond := Condition{Type: CondSpecificValue, Operator: OpGt, Value: "5", Column: "failed_jobs"}
	trig, _, err := Evaluate(cond, res, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !trig {
		t.Fatalf("7 > 5 should trigger")
	}

	cond.Value = "10"
	trig, _, err = Evaluate(cond, res, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if trig {
		t.Fatalf("7 > 10 should not trigger")
	}

	cond.Column = "missing"
	if _, _, err := Evaluate(cond, res, nil); err == nil {
		t.Fatalf("missing column should be an evaluation error")
	}
}

func TestSnoozeRejectsPastTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{alerts: []Alert{{ID: 10, Status: StatusActive}}}
	eng := engineWith(store, &fakeExec{}, nil, now)

	if err := eng.Snooze(context.Background(), "t1", 10, now.Add(-time.Minute)); err == nil {
		t.Fatalf("expected error for past snooze time")
	}
	if err := eng.Snooze(context.Background(), "t1", 10, now.Add(time.Hour)); err != nil {
		t.Fatalf("Snooze: %v", err)
	}
	if len(store.transitions) != 1 || store.transitions[0] != StatusSnoozed {
		t.Fatalf("expected snoozed transition, got %v", store.transitions)
	}
}
