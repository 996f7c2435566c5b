package dbqa

import (
	"context"
	"fmt"
	"time"

	"github.com/faciam-dev/gridbi/internal/connections"
	"github.com/faciam-dev/gridbi/internal/events"
	"github.com/faciam-dev/gridbi/internal/logger"
	"github.com/faciam-dev/gridbi/internal/notify"
	"github.com/faciam-dev/gridbi/pkg/metrics"
)

// Executor runs a query against a connection.
type Executor interface {
	Execute(ctx context.Context, tenant string, connID int64, queryText string) (connections.Result, error)
}

// Store is the persistence surface the engine needs.
type Store interface {
	GetQuery(ctx context.Context, tenant string, id int64) (Query, error)
	ListQueriesByFrequency(ctx context.Context, f Frequency) ([]Query, error)
	RecordExecution(ctx context.Context, e Execution) (int64, error)
	AlertsForQuery(ctx context.Context, queryID int64) ([]Alert, error)
	GetAlert(ctx context.Context, tenant string, id int64) (Alert, error)
	SetAlertStatus(ctx context.Context, alertID int64, from, to Status, note string, lastTriggered *time.Time, snoozedUntil *time.Time) error
	RecordNotification(ctx context.Context, n Notification) error
}

// ChannelResolver maps an alert's configured channel names to transports.
type ChannelResolver func(names []string) []notify.Channel

// Engine evaluates alerts against query executions.
type Engine struct {
	Store    Store
	Exec     Executor
	Channels ChannelResolver
	Now      func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// AlertOutcome reports what happened to one alert during a run.
type AlertOutcome struct {
	AlertID   int64
	Name      string
	Triggered bool
	Throttled bool
	Results   []notify.Result
}

// RunReport summarizes one query run.
type RunReport struct {
	ExecutionID int64
	RowCount    int
	Error       string
	Alerts      []AlertOutcome
}

// RunQuery executes a health-check query and evaluates every alert watching
// it. Evaluation failures on one alert never abort the others.
func (e *Engine) RunQuery(ctx context.Context, tenant string, queryID int64) (RunReport, error) {
	q, err := e.Store.GetQuery(ctx, tenant, queryID)
	if err != nil {
		return RunReport{}, err
	}
	started := e.now()
	res, execErr := e.Exec.Execute(ctx, tenant, q.ConnectionID, q.SQL)

	exec := Execution{
		QueryID:  q.ID,
		RanAt:    started,
		RowCount: res.RowCount,
		Duration: time.Since(started),
	}
	if execErr != nil {
		exec.Error = execErr.Error()
	}
	execID, err := e.Store.RecordExecution(ctx, exec)
	if err != nil {
		return RunReport{}, fmt.Errorf("record execution: %w", err)
	}

	report := RunReport{ExecutionID: execID, RowCount: res.RowCount, Error: exec.Error}
	alerts, err := e.Store.AlertsForQuery(ctx, q.ID)
	if err != nil {
		return report, fmt.Errorf("load alerts: %w", err)
	}
	for _, a := range alerts {
		outcome := e.processAlert(ctx, a, q, res, execErr)
		report.Alerts = append(report.Alerts, outcome)
	}
	return report, nil
}

func (e *Engine) processAlert(ctx context.Context, a Alert, q Query, res connections.Result, execErr error) AlertOutcome {
	out := AlertOutcome{AlertID: a.ID, Name: a.Name}
	now := e.now()

	triggered, summary, evalErr := Evaluate(a.Condition, res, execErr)
	if evalErr != nil {
		logger.L.Error("alert evaluation failed", "alert", a.ID, "err", evalErr)
		return out
	}

	if !triggered {
		if a.Status == StatusActive {
			if err := e.Store.SetAlertStatus(ctx, a.ID, a.Status, StatusResolved, "condition cleared", nil, nil); err != nil {
				logger.L.Error("resolve alert", "alert", a.ID, "err", err)
			}
		}
		return out
	}
	out.Triggered = true

	// An unexpired snooze suppresses everything, including state changes.
	if a.Status == StatusSnoozed && a.SnoozedUntil != nil && now.Before(*a.SnoozedUntil) {
		out.Throttled = true
		return out
	}

	throttled := a.LastTriggeredAt != nil &&
		now.Sub(*a.LastTriggeredAt) < time.Duration(a.ThrottleMinutes)*time.Minute
	out.Throttled = throttled

	if err := e.Store.SetAlertStatus(ctx, a.ID, a.Status, StatusActive, summary, &now, nil); err != nil {
		logger.L.Error("activate alert", "alert", a.ID, "err", err)
	}
	metrics.AlertTriggers.WithLabelValues(string(a.Severity)).Inc()
	events.Emit(ctx, events.Event{Name: events.AlertTriggered, Time: now, Data: map[string]any{
		"alert":    a.ID,
		"query":    q.ID,
		"severity": string(a.Severity),
		"summary":  summary,
	}})

	if throttled {
		return out
	}

	var channels []notify.Channel
	if e.Channels != nil {
		channels = e.Channels(a.Channels)
	}
	if len(channels) == 0 {
		return out
	}
	msg := notify.Message{
		QueryName: q.Name,
		AlertName: a.Name,
		Severity:  string(a.Severity),
		Summary:   summary,
		Time:      now,
	}
	out.Results = notify.Dispatch(ctx, channels, msg)
	for _, r := range out.Results {
		n := Notification{AlertID: a.ID, Channel: r.Channel, Attempts: 1, Status: "sent"}
		if !r.Sent {
			n.Status = "failed"
			if r.Err != nil {
				n.Error = r.Err.Error()
			}
		}
		if err := e.Store.RecordNotification(ctx, n); err != nil {
			logger.L.Error("record notification", "alert", a.ID, "channel", r.Channel, "err", err)
		}
	}
	return out
}

// RunDue executes every query on the given schedule. Called from cron.
func (e *Engine) RunDue(ctx context.Context, f Frequency) {
	qs, err := e.Store.ListQueriesByFrequency(ctx, f)
	if err != nil {
		logger.L.Error("list scheduled queries", "frequency", f, "err", err)
		return
	}
	for _, q := range qs {
		if _, err := e.RunQuery(ctx, q.TenantID, q.ID); err != nil {
			logger.L.Error("scheduled run failed", "query", q.ID, "err", err)
		}
	}
}

// Resolve manually closes an alert.
func (e *Engine) Resolve(ctx context.Context, tenant string, alertID int64) error {
	a, err := e.Store.GetAlert(ctx, tenant, alertID)
	if err != nil {
		return err
	}
	if a.Status == StatusResolved {
		return nil
	}
	return e.Store.SetAlertStatus(ctx, a.ID, a.Status, StatusResolved, "manually resolved", nil, nil)
}

// Snooze suppresses an alert until the given time.
func (e *Engine) Snooze(ctx context.Context, tenant string, alertID int64, until time.Time) error {
	a, err := e.Store.GetAlert(ctx, tenant, alertID)
	if err != nil {
		return err
	}
	if !until.After(e.now()) {
		return fmt.Errorf("snooze time must be in the future")
	}
	return e.Store.SetAlertStatus(ctx, a.ID, a.Status, StatusSnoozed, "snoozed", nil, &until)
}
