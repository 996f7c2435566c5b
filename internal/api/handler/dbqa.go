package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	"github.com/faciam-dev/gridbi/internal/connections"
	"github.com/faciam-dev/gridbi/internal/dbqa"
	"github.com/faciam-dev/gridbi/internal/events"
	ihuma "github.com/faciam-dev/gridbi/internal/huma"
	"github.com/faciam-dev/gridbi/internal/tenant"
)

// DbQaHandler manages health-check queries and their alerts via REST.
type DbQaHandler struct {
	Repo        *dbqa.Repo
	Engine      *dbqa.Engine
	Connections *connections.Repo
}

type createQaQueryInput struct{ Body schema.CreateDbQaQuery }
type qaQueryOutput struct{ Body schema.DbQaQuery }
type listQaQueryOutput struct{ Body []schema.DbQaQuery }

type updateQaQueryInput struct {
	ID   int64 `path:"id"`
	Body schema.CreateDbQaQuery
}

type runReportOutput struct{ Body schema.RunReport }

type listExecutionsInput struct {
	ID    int64 `path:"id"`
	Limit int   `query:"limit" default:"20" maximum:"200"`
}
type listExecutionsOutput struct{ Body []schema.Execution }

type createAlertInput struct{ Body schema.CreateDbQaAlert }
type alertOutput struct{ Body schema.DbQaAlert }
type listAlertsOutput struct{ Body []schema.DbQaAlert }

type updateAlertInput struct {
	ID   int64 `path:"id"`
	Body schema.CreateDbQaAlert
}

type snoozeInput struct {
	ID   int64 `path:"id"`
	Body schema.SnoozeAlert
}

type alertLogInput struct {
	ID    int64 `path:"id"`
	Limit int   `query:"limit" default:"50" maximum:"500"`
}
type notificationsOutput struct{ Body []schema.Notification }
type historyOutput struct{ Body []schema.HistoryEntry }

// RegisterDbQa registers health-check query and alert endpoints.
func RegisterDbQa(api huma.API, h *DbQaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listDbQaQueries",
		Method:      http.MethodGet,
		Path:        "/v1/db-qa/queries",
		Summary:     "List health-check queries",
		Tags:        []string{"DB QA"},
	}, h.listQueries)
	huma.Register(api, huma.Operation{
		OperationID:   "createDbQaQuery",
		Method:        http.MethodPost,
		Path:          "/v1/db-qa/queries",
		Summary:       "Register a health-check query",
		Tags:          []string{"DB QA"},
		DefaultStatus: http.StatusCreated,
	}, h.createQuery)
	huma.Register(api, huma.Operation{
		OperationID: "getDbQaQuery",
		Method:      http.MethodGet,
		Path:        "/v1/db-qa/queries/{id}",
		Summary:     "Get health-check query",
		Tags:        []string{"DB QA"},
	}, h.getQuery)
	huma.Register(api, huma.Operation{
		OperationID: "updateDbQaQuery",
		Method:      http.MethodPut,
		Path:        "/v1/db-qa/queries/{id}",
		Summary:     "Update health-check query",
		Tags:        []string{"DB QA"},
	}, h.updateQuery)
	huma.Register(api, huma.Operation{
		OperationID:   "deleteDbQaQuery",
		Method:        http.MethodDelete,
		Path:          "/v1/db-qa/queries/{id}",
		Summary:       "Delete health-check query",
		Tags:          []string{"DB QA"},
		DefaultStatus: http.StatusNoContent,
	}, h.deleteQuery)
	huma.Register(api, huma.Operation{
		OperationID: "runDbQaQuery",
		Method:      http.MethodPost,
		Path:        "/v1/db-qa/queries/{id}/run",
		Summary:     "Run a health-check query now",
		Tags:        []string{"DB QA"},
	}, h.runQuery)
	huma.Register(api, huma.Operation{
		OperationID: "listDbQaExecutions",
		Method:      http.MethodGet,
		Path:        "/v1/db-qa/queries/{id}/executions",
		Summary:     "List recent executions",
		Tags:        []string{"DB QA"},
	}, h.listExecutions)
	huma.Register(api, huma.Operation{
		OperationID: "listDbQaAlerts",
		Method:      http.MethodGet,
		Path:        "/v1/db-qa/alerts",
		Summary:     "List alerts",
		Tags:        []string{"DB QA"},
	}, h.listAlerts)
	huma.Register(api, huma.Operation{
		OperationID:   "createDbQaAlert",
		Method:        http.MethodPost,
		Path:          "/v1/db-qa/alerts",
		Summary:       "Attach an alert to a query",
		Tags:          []string{"DB QA"},
		DefaultStatus: http.StatusCreated,
	}, h.createAlert)
	huma.Register(api, huma.Operation{
		OperationID: "getDbQaAlert",
		Method:      http.MethodGet,
		Path:        "/v1/db-qa/alerts/{id}",
		Summary:     "Get alert",
		Tags:        []string{"DB QA"},
	}, h.getAlert)
	huma.Register(api, huma.Operation{
		OperationID: "updateDbQaAlert",
		Method:      http.MethodPut,
		Path:        "/v1/db-qa/alerts/{id}",
		Summary:     "Update alert",
		Tags:        []string{"DB QA"},
	}, h.updateAlert)
	huma.Register(api, huma.Operation{
		OperationID:   "deleteDbQaAlert",
		Method:        http.MethodDelete,
		Path:          "/v1/db-qa/alerts/{id}",
		Summary:       "Delete alert",
		Tags:          []string{"DB QA"},
		DefaultStatus: http.StatusNoContent,
	}, h.deleteAlert)
	huma.Register(api, huma.Operation{
		OperationID: "resolveDbQaAlert",
		Method:      http.MethodPost,
		Path:        "/v1/db-qa/alerts/{id}/resolve",
		Summary:     "Mark an alert resolved",
		Tags:        []string{"DB QA"},
	}, h.resolveAlert)
	huma.Register(api, huma.Operation{
		OperationID: "snoozeDbQaAlert",
		Method:      http.MethodPost,
		Path:        "/v1/db-qa/alerts/{id}/snooze",
		Summary:     "Snooze an alert until a future time",
		Tags:        []string{"DB QA"},
	}, h.snoozeAlert)
	huma.Register(api, huma.Operation{
		OperationID: "listDbQaNotifications",
		Method:      http.MethodGet,
		Path:        "/v1/db-qa/alerts/{id}/notifications",
		Summary:     "List notification attempts",
		Tags:        []string{"DB QA"},
	}, h.listNotifications)
	huma.Register(api, huma.Operation{
		OperationID: "listDbQaHistory",
		Method:      http.MethodGet,
		Path:        "/v1/db-qa/alerts/{id}/history",
		Summary:     "List alert status transitions",
		Tags:        []string{"DB QA"},
	}, h.listHistory)
}

func qaQueryToSchema(q dbqa.Query) schema.DbQaQuery {
	return schema.DbQaQuery{
		ID:           q.ID,
		Name:         q.Name,
		Category:     q.Category,
		ConnectionID: q.ConnectionID,
		SQL:          q.SQL,
		Frequency:    string(q.Frequency),
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

func alertToSchema(a dbqa.Alert) schema.DbQaAlert {
	return schema.DbQaAlert{
		ID:              a.ID,
		QueryID:         a.QueryID,
		Name:            a.Name,
		Condition:       a.Condition,
		Severity:        string(a.Severity),
		Channels:        a.Channels,
		ThrottleMinutes: a.ThrottleMinutes,
		Status:          string(a.Status),
		LastTriggeredAt: a.LastTriggeredAt,
		SnoozedUntil:    a.SnoozedUntil,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func reportToSchema(r dbqa.RunReport) schema.RunReport {
	out := schema.RunReport{ExecutionID: r.ExecutionID, RowCount: r.RowCount, Error: r.Error}
	for _, a := range r.Alerts {
		o := schema.AlertOutcome{AlertID: a.AlertID, Name: a.Name, Triggered: a.Triggered, Throttled: a.Throttled}
		for _, nr := range a.Results {
			if nr.Sent {
				o.Channels = append(o.Channels, nr.Channel)
			}
		}
		out.Alerts = append(out.Alerts, o)
	}
	return out
}

// checkQaQuery validates a query payload beyond what the schema enforces.
func (h *DbQaHandler) checkQaQuery(ctx context.Context, tid string, in schema.CreateDbQaQuery) error {
	if !dbqa.Frequency(in.Frequency).Valid() {
		return ihuma.Error422("body.frequency", "unknown frequency")
	}
	if _, err := h.Connections.Get(ctx, tid, in.ConnectionID); err != nil {
		return ihuma.Error422("body.connectionId", "connection not found")
	}
	return nil
}

func (h *DbQaHandler) listQueries(ctx context.Context, _ *struct{}) (*listQaQueryOutput, error) {
	tid := tenant.FromContext(ctx)
	qs, err := h.Repo.ListQueries(ctx, tid)
	if err != nil {
		return nil, err
	}
	res := make([]schema.DbQaQuery, len(qs))
	for i, q := range qs {
		res[i] = qaQueryToSchema(q)
	}
	return &listQaQueryOutput{Body: res}, nil
}

func (h *DbQaHandler) createQuery(ctx context.Context, in *createQaQueryInput) (*qaQueryOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := h.checkQaQuery(ctx, tid, in.Body); err != nil {
		return nil, err
	}
	id, err := h.Repo.CreateQuery(ctx, dbqa.Query{
		TenantID:     tid,
		Name:         in.Body.Name,
		Category:     in.Body.Category,
		ConnectionID: in.Body.ConnectionID,
		SQL:          in.Body.SQL,
		Frequency:    dbqa.Frequency(in.Body.Frequency),
	})
	if err != nil {
		return nil, err
	}
	q, err := h.Repo.GetQuery(ctx, tid, id)
	if err != nil {
		return nil, err
	}
	return &qaQueryOutput{Body: qaQueryToSchema(q)}, nil
}

func (h *DbQaHandler) getQuery(ctx context.Context, in *idParam) (*qaQueryOutput, error) {
	tid := tenant.FromContext(ctx)
	q, err := h.Repo.GetQuery(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("query not found")
	}
	return &qaQueryOutput{Body: qaQueryToSchema(q)}, nil
}

func (h *DbQaHandler) updateQuery(ctx context.Context, in *updateQaQueryInput) (*qaQueryOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := h.checkQaQuery(ctx, tid, in.Body); err != nil {
		return nil, err
	}
	if _, err := h.Repo.GetQuery(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("query not found")
	}
	if err := h.Repo.UpdateQuery(ctx, dbqa.Query{
		ID:           in.ID,
		TenantID:     tid,
		Name:         in.Body.Name,
		Category:     in.Body.Category,
		ConnectionID: in.Body.ConnectionID,
		SQL:          in.Body.SQL,
		Frequency:    dbqa.Frequency(in.Body.Frequency),
	}); err != nil {
		return nil, err
	}
	q, err := h.Repo.GetQuery(ctx, tid, in.ID)
	if err != nil {
		return nil, err
	}
	return &qaQueryOutput{Body: qaQueryToSchema(q)}, nil
}

func (h *DbQaHandler) deleteQuery(ctx context.Context, in *idParam) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Repo.DeleteQuery(ctx, tid, in.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (h *DbQaHandler) runQuery(ctx context.Context, in *idParam) (*runReportOutput, error) {
	tid := tenant.FromContext(ctx)
	rep, err := h.Engine.RunQuery(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("query not found")
	}
	return &runReportOutput{Body: reportToSchema(rep)}, nil
}

func (h *DbQaHandler) listExecutions(ctx context.Context, in *listExecutionsInput) (*listExecutionsOutput, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.GetQuery(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("query not found")
	}
	es, err := h.Repo.ListExecutions(ctx, in.ID, in.Limit)
	if err != nil {
		return nil, err
	}
	res := make([]schema.Execution, len(es))
	for i, e := range es {
		res[i] = schema.Execution{
			ID:         e.ID,
			QueryID:    e.QueryID,
			RanAt:      e.RanAt,
			RowCount:   e.RowCount,
			Error:      e.Error,
			DurationMs: e.Duration.Milliseconds(),
		}
	}
	return &listExecutionsOutput{Body: res}, nil
}

// checkAlert validates an alert payload beyond what the schema enforces.
func (h *DbQaHandler) checkAlert(ctx context.Context, tid string, in schema.CreateDbQaAlert) error {
	if _, err := h.Repo.GetQuery(ctx, tid, in.QueryID); err != nil {
		return ihuma.Error422("body.queryId", "query not found")
	}
	if err := in.Condition.Validate(); err != nil {
		return ihuma.Error422("body.condition", err.Error())
	}
	return nil
}

func (h *DbQaHandler) listAlerts(ctx context.Context, _ *struct{}) (*listAlertsOutput, error) {
	tid := tenant.FromContext(ctx)
	as, err := h.Repo.ListAlerts(ctx, tid)
	if err != nil {
		return nil, err
	}
	res := make([]schema.DbQaAlert, len(as))
	for i, a := range as {
		res[i] = alertToSchema(a)
	}
	return &listAlertsOutput{Body: res}, nil
}

func (h *DbQaHandler) createAlert(ctx context.Context, in *createAlertInput) (*alertOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := h.checkAlert(ctx, tid, in.Body); err != nil {
		return nil, err
	}
	id, err := h.Repo.CreateAlert(ctx, dbqa.Alert{
		TenantID:        tid,
		QueryID:         in.Body.QueryID,
		Name:            in.Body.Name,
		Condition:       in.Body.Condition,
		Severity:        dbqa.Severity(in.Body.Severity),
		Channels:        in.Body.Channels,
		ThrottleMinutes: in.Body.ThrottleMinutes,
	})
	if err != nil {
		return nil, err
	}
	a, err := h.Repo.GetAlert(ctx, tid, id)
	if err != nil {
		return nil, err
	}
	return &alertOutput{Body: alertToSchema(a)}, nil
}

func (h *DbQaHandler) getAlert(ctx context.Context, in *idParam) (*alertOutput, error) {
	tid := tenant.FromContext(ctx)
	a, err := h.Repo.GetAlert(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("alert not found")
	}
	return &alertOutput{Body: alertToSchema(a)}, nil
}

func (h *DbQaHandler) updateAlert(ctx context.Context, in *updateAlertInput) (*alertOutput, error) {
	tid := tenant.FromContext(ctx)
	prev, err := h.Repo.GetAlert(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("alert not found")
	}
	if err := h.checkAlert(ctx, tid, in.Body); err != nil {
		return nil, err
	}
	prev.QueryID = in.Body.QueryID
	prev.Name = in.Body.Name
	prev.Condition = in.Body.Condition
	prev.Severity = dbqa.Severity(in.Body.Severity)
	prev.Channels = in.Body.Channels
	prev.ThrottleMinutes = in.Body.ThrottleMinutes
	if err := h.Repo.UpdateAlert(ctx, prev); err != nil {
		return nil, err
	}
	a, err := h.Repo.GetAlert(ctx, tid, in.ID)
	if err != nil {
		return nil, err
	}
	return &alertOutput{Body: alertToSchema(a)}, nil
}

func (h *DbQaHandler) deleteAlert(ctx context.Context, in *idParam) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Repo.DeleteAlert(ctx, tid, in.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (h *DbQaHandler) resolveAlert(ctx context.Context, in *idParam) (*alertOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Engine.Resolve(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("alert not found")
	}
	a, err := h.Repo.GetAlert(ctx, tid, in.ID)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, events.Event{Name: events.AlertResolved, Time: time.Now(), Data: map[string]any{"alert": in.ID}})
	return &alertOutput{Body: alertToSchema(a)}, nil
}

func (h *DbQaHandler) snoozeAlert(ctx context.Context, in *snoozeInput) (*alertOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Engine.Snooze(ctx, tid, in.ID, in.Body.Until); err != nil {
		return nil, ihuma.Error422("body.until", err.Error())
	}
	a, err := h.Repo.GetAlert(ctx, tid, in.ID)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, events.Event{Name: events.AlertSnoozed, Time: time.Now(), Data: map[string]any{"alert": in.ID}})
	return &alertOutput{Body: alertToSchema(a)}, nil
}

func (h *DbQaHandler) listNotifications(ctx context.Context, in *alertLogInput) (*notificationsOutput, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.GetAlert(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("alert not found")
	}
	ns, err := h.Repo.ListNotifications(ctx, in.ID, in.Limit)
	if err != nil {
		return nil, err
	}
	res := make([]schema.Notification, len(ns))
	for i, n := range ns {
		res[i] = schema.Notification{ID: n.ID, Channel: n.Channel, Status: n.Status, Error: n.Error, Attempts: n.Attempts, CreatedAt: n.CreatedAt}
	}
	return &notificationsOutput{Body: res}, nil
}

func (h *DbQaHandler) listHistory(ctx context.Context, in *alertLogInput) (*historyOutput, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.GetAlert(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("alert not found")
	}
	hs, err := h.Repo.ListHistory(ctx, in.ID, in.Limit)
	if err != nil {
		return nil, err
	}
	res := make([]schema.HistoryEntry, len(hs))
	for i, e := range hs {
		res[i] = schema.HistoryEntry{ID: e.ID, From: string(e.From), To: string(e.To), Note: e.Note, CreatedAt: e.CreatedAt}
	}
	return &historyOutput{Body: res}, nil
}
