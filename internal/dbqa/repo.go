package dbqa

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	ormdriver "github.com/faciam-dev/goquent/orm/driver"
	"github.com/faciam-dev/goquent/orm/query"
)

// Repo manages the DB QA table family.
type Repo struct {
	DB          *sql.DB
	Dialect     ormdriver.Dialect
	Driver      string
	TablePrefix string
}

func (r *Repo) prefix() string {
	if r.TablePrefix != "" {
		return r.TablePrefix
	}
	return "gridbi_"
}

func (r *Repo) queriesTable() string       { return r.prefix() + "db_qa_queries" }
func (r *Repo) executionsTable() string    { return r.prefix() + "db_qa_execution_results" }
func (r *Repo) alertsTable() string        { return r.prefix() + "db_qa_alerts" }
func (r *Repo) notificationsTable() string { return r.prefix() + "db_qa_alert_notifications" }
func (r *Repo) historyTable() string       { return r.prefix() + "db_qa_alert_history" }

var queryColumns = []string{
	"id", "tenant_id", "name", "category", "connection_id", "sql_text",
	"frequency", "created_at", "updated_at",
}

type dbQuery struct {
	ID           int64     `db:"id"`
	TenantID     string    `db:"tenant_id"`
	Name         string    `db:"name"`
	Category     string    `db:"category"`
	ConnectionID int64     `db:"connection_id"`
	SQLText      string    `db:"sql_text"`
	Frequency    string    `db:"frequency"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func queryFromDB(r0 dbQuery) Query {
	return Query{
		ID:           r0.ID,
		TenantID:     r0.TenantID,
		Name:         r0.Name,
		Category:     r0.Category,
		ConnectionID: r0.ConnectionID,
		SQL:          r0.SQLText,
		Frequency:    Frequency(r0.Frequency),
		CreatedAt:    r0.CreatedAt,
		UpdatedAt:    r0.UpdatedAt,
	}
}

// CreateQuery inserts a health-check query and returns its ID.
func (r *Repo) CreateQuery(ctx context.Context, q Query) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, fmt.Errorf("repo not initialized")
	}
	data := map[string]any{
		"tenant_id":     q.TenantID,
		"name":          q.Name,
		"category":      q.Category,
		"connection_id": q.ConnectionID,
		"sql_text":      q.SQL,
		"frequency":     string(q.Frequency),
	}
	return query.New(r.DB, r.queriesTable(), r.Dialect).WithContext(ctx).InsertGetId(data)
}

// ListQueries returns a tenant's health-check queries.
func (r *Repo) ListQueries(ctx context.Context, tenant string) ([]Query, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.queriesTable(), r.Dialect).
		Select(queryColumns...).
		Where("tenant_id", tenant).
		OrderBy("id", "asc")
	var rs []dbQuery
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make([]Query, 0, len(rs))
	for _, r0 := range rs {
		out = append(out, queryFromDB(r0))
	}
	return out, nil
}

// ListQueriesByFrequency returns all queries on a schedule, across tenants.
// The scheduler uses this to find due work.
func (r *Repo) ListQueriesByFrequency(ctx context.Context, f Frequency) ([]Query, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.queriesTable(), r.Dialect).
		Select(queryColumns...).
		Where("frequency", string(f)).
		OrderBy("id", "asc")
	var rs []dbQuery
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make([]Query, 0, len(rs))
	for _, r0 := range rs {
		out = append(out, queryFromDB(r0))
	}
	return out, nil
}

// GetQuery fetches one query by tenant and ID.
func (r *Repo) GetQuery(ctx context.Context, tenant string, id int64) (Query, error) {
	if r == nil || r.DB == nil {
		return Query{}, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.queriesTable(), r.Dialect).
		Select(queryColumns...).
		Where("tenant_id", tenant).
		Where("id", id)
	var r0 dbQuery
	if err := q.WithContext(ctx).First(&r0); err != nil {
		return Query{}, err
	}
	return queryFromDB(r0), nil
}

// UpdateQuery rewrites a query's attributes.
func (r *Repo) UpdateQuery(ctx context.Context, q Query) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	_, err := query.New(r.DB, r.queriesTable(), r.Dialect).
		Where("tenant_id", q.TenantID).
		Where("id", q.ID).
		WithContext(ctx).
		Update(map[string]any{
			"name":          q.Name,
			"category":      q.Category,
			"connection_id": q.ConnectionID,
			"sql_text":      q.SQL,
			"frequency":     string(q.Frequency),
			"updated_at":    time.Now(),
		})
	return err
}

// DeleteQuery removes a query and its dependents.
func (r *Repo) DeleteQuery(ctx context.Context, tenant string, id int64) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	_, err := query.New(r.DB, r.queriesTable(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx).
		Delete()
	return err
}

// RecordExecution stores one run's outcome.
func (r *Repo) RecordExecution(ctx context.Context, e Execution) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, fmt.Errorf("repo not initialized")
	}
	data := map[string]any{
		"query_id":    e.QueryID,
		"ran_at":      e.RanAt,
		"row_count":   e.RowCount,
		"error":       e.Error,
		"duration_ms": e.Duration.Milliseconds(),
	}
	return query.New(r.DB, r.executionsTable(), r.Dialect).WithContext(ctx).InsertGetId(data)
}

// ListExecutions returns recent runs for a query, newest first.
func (r *Repo) ListExecutions(ctx context.Context, queryID int64, limit int) ([]Execution, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.executionsTable(), r.Dialect).
		Select("id", "query_id", "ran_at", "row_count", "error", "duration_ms").
		Where("query_id", queryID).
		OrderBy("id", "desc")
	if limit > 0 {
		q.Limit(limit)
	}
	type row struct {
		ID         int64     `db:"id"`
		QueryID    int64     `db:"query_id"`
		RanAt      time.Time `db:"ran_at"`
		RowCount   int       `db:"row_count"`
		Error      string    `db:"error"`
		DurationMs int64     `db:"duration_ms"`
	}
	var rs []row
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make([]Execution, 0, len(rs))
	for _, r0 := range rs {
		out = append(out, Execution{
			ID:       r0.ID,
			QueryID:  r0.QueryID,
			RanAt:    r0.RanAt,
			RowCount: r0.RowCount,
			Error:    r0.Error,
			Duration: time.Duration(r0.DurationMs) * time.Millisecond,
		})
	}
	return out, nil
}

var alertColumns = []string{
	"id", "tenant_id", "query_id", "name", "condition", "severity", "channels",
	"throttle_minutes", "status", "last_triggered_at", "snoozed_until",
	"created_at", "updated_at",
}

type dbAlert struct {
	ID              int64        `db:"id"`
	TenantID        string       `db:"tenant_id"`
	QueryID         int64        `db:"query_id"`
	Name            string       `db:"name"`
	Condition       []byte       `db:"condition"`
	Severity        string       `db:"severity"`
	Channels        []byte       `db:"channels"`
	ThrottleMinutes int          `db:"throttle_minutes"`
	Status          string       `db:"status"`
	LastTriggeredAt sql.NullTime `db:"last_triggered_at"`
	SnoozedUntil    sql.NullTime `db:"snoozed_until"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

func alertFromDB(r0 dbAlert) (Alert, error) {
	a := Alert{
		ID:              r0.ID,
		TenantID:        r0.TenantID,
		QueryID:         r0.QueryID,
		Name:            r0.Name,
		Severity:        Severity(r0.Severity),
		ThrottleMinutes: r0.ThrottleMinutes,
		Status:          Status(r0.Status),
		CreatedAt:       r0.CreatedAt,
		UpdatedAt:       r0.UpdatedAt,
	}
	if len(r0.Condition) > 0 {
		if err := json.Unmarshal(r0.Condition, &a.Condition); err != nil {
			return Alert{}, fmt.Errorf("alert %d: malformed condition: %w", r0.ID, err)
		}
	}
	if len(r0.Channels) > 0 {
		if err := json.Unmarshal(r0.Channels, &a.Channels); err != nil {
			return Alert{}, fmt.Errorf("alert %d: malformed channels: %w", r0.ID, err)
		}
	}
	if r0.LastTriggeredAt.Valid {
		t := r0.LastTriggeredAt.Time
		a.LastTriggeredAt = &t
	}
	if r0.SnoozedUntil.Valid {
		t := r0.SnoozedUntil.Time
		a.SnoozedUntil = &t
	}
	return a, nil
}

// CreateAlert inserts an alert and returns its ID.
func (r *Repo) CreateAlert(ctx context.Context, a Alert) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, fmt.Errorf("repo not initialized")
	}
	cond, err := json.Marshal(a.Condition)
	if err != nil {
		return 0, err
	}
	chans, err := json.Marshal(a.Channels)
	if err != nil {
		return 0, err
	}
	if a.Status == "" {
		a.Status = StatusResolved
	}
	data := map[string]any{
		"tenant_id":        a.TenantID,
		"query_id":         a.QueryID,
		"name":             a.Name,
		"condition":        cond,
		"severity":         string(a.Severity),
		"channels":         chans,
		"throttle_minutes": a.ThrottleMinutes,
		"status":           string(a.Status),
	}
	return query.New(r.DB, r.alertsTable(), r.Dialect).WithContext(ctx).InsertGetId(data)
}

// ListAlerts returns a tenant's alerts.
func (r *Repo) ListAlerts(ctx context.Context, tenant string) ([]Alert, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.alertsTable(), r.Dialect).
		Select(alertColumns...).
		Where("tenant_id", tenant).
		OrderBy("id", "asc")
	return r.collectAlerts(ctx, q)
}

// AlertsForQuery returns the alerts watching one query.
func (r *Repo) AlertsForQuery(ctx context.Context, queryID int64) ([]Alert, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.alertsTable(), r.Dialect).
		Select(alertColumns...).
		Where("query_id", queryID).
		OrderBy("id", "asc")
	return r.collectAlerts(ctx, q)
}

func (r *Repo) collectAlerts(ctx context.Context, q *query.Query) ([]Alert, error) {
	var rs []dbAlert
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make([]Alert, 0, len(rs))
	for _, r0 := range rs {
		a, err := alertFromDB(r0)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// GetAlert fetches one alert by tenant and ID.
func (r *Repo) GetAlert(ctx context.Context, tenant string, id int64) (Alert, error) {
	if r == nil || r.DB == nil {
		return Alert{}, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.alertsTable(), r.Dialect).
		Select(alertColumns...).
		Where("tenant_id", tenant).
		Where("id", id)
	var r0 dbAlert
	if err := q.WithContext(ctx).First(&r0); err != nil {
		return Alert{}, err
	}
	return alertFromDB(r0)
}

// UpdateAlert rewrites an alert's rule attributes.
func (r *Repo) UpdateAlert(ctx context.Context, a Alert) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	cond, err := json.Marshal(a.Condition)
	if err != nil {
		return err
	}
	chans, err := json.Marshal(a.Channels)
	if err != nil {
		return err
	}
	_, err = query.New(r.DB, r.alertsTable(), r.Dialect).
		Where("tenant_id", a.TenantID).
		Where("id", a.ID).
		WithContext(ctx).
		Update(map[string]any{
			"name":             a.Name,
			"condition":        cond,
			"severity":         string(a.Severity),
			"channels":         chans,
			"throttle_minutes": a.ThrottleMinutes,
			"updated_at":       time.Now(),
		})
	return err
}

// DeleteAlert removes an alert.
func (r *Repo) DeleteAlert(ctx context.Context, tenant string, id int64) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	_, err := query.New(r.DB, r.alertsTable(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx).
		Delete()
	return err
}

// SetAlertStatus transitions an alert and records the change.
func (r *Repo) SetAlertStatus(ctx context.Context, alertID int64, from, to Status, note string, lastTriggered *time.Time, snoozedUntil *time.Time) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	data := map[string]any{"status": string(to), "updated_at": time.Now()}
	if lastTriggered != nil {
		data["last_triggered_at"] = *lastTriggered
	}
	if to == StatusSnoozed {
		data["snoozed_until"] = snoozedUntil
	} else {
		data["snoozed_until"] = nil
	}
	if _, err := query.New(r.DB, r.alertsTable(), r.Dialect).
		Where("id", alertID).
		WithContext(ctx).
		Update(data); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	_, err := query.New(r.DB, r.historyTable(), r.Dialect).WithContext(ctx).
		InsertGetId(map[string]any{
			"alert_id":    alertID,
			"from_status": string(from),
			"to_status":   string(to),
			"note":        note,
		})
	return err
}

// RecordNotification stores one channel delivery attempt.
func (r *Repo) RecordNotification(ctx context.Context, n Notification) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	_, err := query.New(r.DB, r.notificationsTable(), r.Dialect).WithContext(ctx).
		InsertGetId(map[string]any{
			"alert_id": n.AlertID,
			"channel":  n.Channel,
			"status":   n.Status,
			"error":    n.Error,
			"attempts": n.Attempts,
		})
	return err
}

// ListNotifications returns delivery attempts for an alert, newest first.
func (r *Repo) ListNotifications(ctx context.Context, alertID int64, limit int) ([]Notification, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.notificationsTable(), r.Dialect).
		Select("id", "alert_id", "channel", "status", "error", "attempts", "created_at").
		Where("alert_id", alertID).
		OrderBy("id", "desc")
	if limit > 0 {
		q.Limit(limit)
	}
	type row struct {
		ID        int64     `db:"id"`
		AlertID   int64     `db:"alert_id"`
		Channel   string    `db:"channel"`
		Status    string    `db:"status"`
		Error     string    `db:"error"`
		Attempts  int       `db:"attempts"`
		CreatedAt time.Time `db:"created_at"`
	}
	var rs []row
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(rs))
	for _, r0 := range rs {
		out = append(out, Notification{
			ID:        r0.ID,
			AlertID:   r0.AlertID,
			Channel:   r0.Channel,
			Status:    r0.Status,
			Error:     r0.Error,
			Attempts:  r0.Attempts,
			CreatedAt: r0.CreatedAt,
		})
	}
	return out, nil
}

// ListHistory returns an alert's status transitions, newest first.
func (r *Repo) ListHistory(ctx context.Context, alertID int64, limit int) ([]HistoryEntry, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.historyTable(), r.Dialect).
		Select("id", "alert_id", "from_status", "to_status", "note", "created_at").
		Where("alert_id", alertID).
		OrderBy("id", "desc")
	if limit > 0 {
		q.Limit(limit)
	}
	type row struct {
		ID         int64     `db:"id"`
		AlertID    int64     `db:"alert_id"`
		FromStatus string    `db:"from_status"`
		ToStatus   string    `db:"to_status"`
		Note       string    `db:"note"`
		CreatedAt  time.Time `db:"created_at"`
	}
	var rs []row
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(rs))
	for _, r0 := range rs {
		out = append(out, HistoryEntry{
			ID:        r0.ID,
			AlertID:   r0.AlertID,
			From:      Status(r0.FromStatus),
			To:        Status(r0.ToStatus),
			Note:      r0.Note,
			CreatedAt: r0.CreatedAt,
		})
	}
	return out, nil
}
