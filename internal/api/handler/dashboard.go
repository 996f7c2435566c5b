package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	"github.com/faciam-dev/gridbi/internal/events"
	"github.com/faciam-dev/gridbi/internal/layout"
	dashrepo "github.com/faciam-dev/gridbi/internal/repository/dashboards"
	widgetsrepo "github.com/faciam-dev/gridbi/internal/repository/widgets"
	"github.com/faciam-dev/gridbi/internal/tenant"
	"github.com/faciam-dev/gridbi/pkg/metrics"
)

// DashboardHandler manages dashboards and widget placement via REST.
type DashboardHandler struct {
	Repo    *dashrepo.Repo
	Widgets *widgetsrepo.Repo
}

type createDashInput struct{ Body schema.CreateDashboard }
type dashOutput struct{ Body schema.Dashboard }
type listDashOutput struct{ Body []schema.Dashboard }
type dashWidgetsOutput struct{ Body []schema.DashboardWidget }

type updateDashInput struct {
	ID   int64 `path:"id"`
	Body schema.UpdateDashboard
}

type attachInput struct {
	ID   int64 `path:"id"`
	Body schema.AttachWidget
}

type detachInput struct {
	ID       int64  `path:"id"`
	WidgetID string `path:"widgetId"`
}

type positionInput struct {
	ID       int64  `path:"id"`
	WidgetID string `path:"widgetId"`
	Body     layout.Position
}

type layoutOutput struct{ Body schema.Layout }

type saveLayoutInput struct {
	ID   int64 `path:"id"`
	Body schema.SaveLayout
}

// RegisterDashboard registers dashboard endpoints.
func RegisterDashboard(api huma.API, h *DashboardHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listDashboards",
		Method:      http.MethodGet,
		Path:        "/v1/dashboards",
		Summary:     "List dashboards",
		Tags:        []string{"Dashboard"},
	}, h.list)
	huma.Register(api, huma.Operation{
		OperationID:   "createDashboard",
		Method:        http.MethodPost,
		Path:          "/v1/dashboards",
		Summary:       "Create dashboard",
		Tags:          []string{"Dashboard"},
		DefaultStatus: http.StatusCreated,
	}, h.create)
	huma.Register(api, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/v1/dashboards/{id}",
		Summary:     "Get dashboard",
		Tags:        []string{"Dashboard"},
	}, h.get)
	huma.Register(api, huma.Operation{
		OperationID: "updateDashboard",
		Method:      http.MethodPut,
		Path:        "/v1/dashboards/{id}",
		Summary:     "Update dashboard",
		Tags:        []string{"Dashboard"},
	}, h.update)
	huma.Register(api, huma.Operation{
		OperationID:   "deleteDashboard",
		Method:        http.MethodDelete,
		Path:          "/v1/dashboards/{id}",
		Summary:       "Delete dashboard",
		Tags:          []string{"Dashboard"},
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
	huma.Register(api, huma.Operation{
		OperationID: "listDashboardWidgets",
		Method:      http.MethodGet,
		Path:        "/v1/dashboards/{id}/widgets",
		Summary:     "List widgets placed on a dashboard",
		Tags:        []string{"Dashboard"},
	}, h.widgets)
	huma.Register(api, huma.Operation{
		OperationID:   "attachWidget",
		Method:        http.MethodPost,
		Path:          "/v1/dashboards/{id}/widgets",
		Summary:       "Place a widget on a dashboard",
		Tags:          []string{"Dashboard"},
		DefaultStatus: http.StatusCreated,
	}, h.attach)
	huma.Register(api, huma.Operation{
		OperationID:   "detachWidget",
		Method:        http.MethodDelete,
		Path:          "/v1/dashboards/{id}/widgets/{widgetId}",
		Summary:       "Remove a widget from a dashboard",
		Tags:          []string{"Dashboard"},
		DefaultStatus: http.StatusNoContent,
	}, h.detach)
	huma.Register(api, huma.Operation{
		OperationID: "patchWidgetPosition",
		Method:      http.MethodPatch,
		Path:        "/v1/dashboards/{id}/widgets/{widgetId}",
		Summary:     "Override a widget's position on a dashboard",
		Tags:        []string{"Dashboard"},
	}, h.position)
	huma.Register(api, huma.Operation{
		OperationID: "getLayout",
		Method:      http.MethodGet,
		Path:        "/v1/dashboards/{id}/layout",
		Summary:     "Get per-breakpoint layout",
		Tags:        []string{"Dashboard"},
	}, h.getLayout)
	huma.Register(api, huma.Operation{
		OperationID: "saveLayout",
		Method:      http.MethodPut,
		Path:        "/v1/dashboards/{id}/layout",
		Summary:     "Save edited layout",
		Tags:        []string{"Dashboard"},
	}, h.saveLayout)
}

func dashToSchema(d dashrepo.Dashboard) schema.Dashboard {
	return schema.Dashboard{ID: d.ID, Name: d.Name, Description: d.Description, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func (h *DashboardHandler) list(ctx context.Context, _ *struct{}) (*listDashOutput, error) {
	tid := tenant.FromContext(ctx)
	ds, err := h.Repo.List(ctx, tid)
	if err != nil {
		return nil, err
	}
	res := make([]schema.Dashboard, len(ds))
	for i, d := range ds {
		res[i] = dashToSchema(d)
	}
	return &listDashOutput{Body: res}, nil
}

func (h *DashboardHandler) create(ctx context.Context, in *createDashInput) (*dashOutput, error) {
	tid := tenant.FromContext(ctx)
	id, err := h.Repo.Create(ctx, dashrepo.Dashboard{TenantID: tid, Name: in.Body.Name, Description: in.Body.Description})
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, events.Event{Name: events.DashboardCreated, Time: time.Now(), Data: map[string]any{"id": id}})
	return &dashOutput{Body: schema.Dashboard{ID: id, Name: in.Body.Name, Description: in.Body.Description}}, nil
}

func (h *DashboardHandler) get(ctx context.Context, in *idParam) (*dashOutput, error) {
	tid := tenant.FromContext(ctx)
	d, err := h.Repo.Get(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("dashboard not found")
	}
	return &dashOutput{Body: dashToSchema(d)}, nil
}

func (h *DashboardHandler) widgets(ctx context.Context, in *idParam) (*dashWidgetsOutput, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.Get(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("dashboard not found")
	}
	wps, err := h.widgetPositions(ctx, tid, in.ID)
	if err != nil {
		return nil, err
	}
	res := make([]schema.DashboardWidget, len(wps))
	for i, wp := range wps {
		res[i] = schema.DashboardWidget{WidgetID: wp.ID, Position: wp.Position}
	}
	return &dashWidgetsOutput{Body: res}, nil
}

func (h *DashboardHandler) update(ctx context.Context, in *updateDashInput) (*dashOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Repo.Update(ctx, tid, in.ID, in.Body.Name, in.Body.Description); err != nil {
		return nil, err
	}
	d, err := h.Repo.Get(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("dashboard not found")
	}
	events.Emit(ctx, events.Event{Name: events.DashboardUpdated, Time: time.Now(), Data: map[string]any{"id": in.ID}})
	return &dashOutput{Body: dashToSchema(d)}, nil
}

func (h *DashboardHandler) delete(ctx context.Context, in *idParam) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Repo.Delete(ctx, tid, in.ID); err != nil {
		return nil, err
	}
	events.Emit(ctx, events.Event{Name: events.DashboardDeleted, Time: time.Now(), Data: map[string]any{"id": in.ID}})
	return &struct{}{}, nil
}

func (h *DashboardHandler) attach(ctx context.Context, in *attachInput) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.Get(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("dashboard not found")
	}
	if _, err := h.Widgets.Get(ctx, tid, in.Body.WidgetID); err != nil {
		return nil, huma.Error404NotFound("widget not found")
	}
	if err := h.Repo.Attach(ctx, in.ID, in.Body.WidgetID, in.Body.Position); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (h *DashboardHandler) detach(ctx context.Context, in *detachInput) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.Get(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("dashboard not found")
	}
	if err := h.Repo.Detach(ctx, in.ID, in.WidgetID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (h *DashboardHandler) position(ctx context.Context, in *positionInput) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.Get(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("dashboard not found")
	}
	if err := h.Repo.UpdatePosition(ctx, in.ID, in.WidgetID, in.Body); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

// widgetPositions resolves each placed widget's effective position: the
// per-dashboard override when present, else the widget's own default.
func (h *DashboardHandler) widgetPositions(ctx context.Context, tid string, dashboardID int64) ([]layout.WidgetPosition, error) {
	ps, err := h.Repo.Placements(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	out := make([]layout.WidgetPosition, 0, len(ps))
	for _, p := range ps {
		wp := layout.WidgetPosition{ID: p.WidgetID}
		if p.Position != nil {
			wp.Position = *p.Position
		} else if w, err := h.Widgets.Get(ctx, tid, p.WidgetID); err == nil && w.Position != nil {
			wp.Position = *w.Position
		}
		out = append(out, wp)
	}
	return out, nil
}

func itemsToSchema(items []layout.Item) []schema.LayoutItem {
	out := make([]schema.LayoutItem, len(items))
	for i, it := range items {
		out[i] = schema.LayoutItem{I: it.ID, X: it.X, Y: it.Y, W: it.W, H: it.H, MinW: it.MinW, MinH: it.MinH}
	}
	return out
}

func (h *DashboardHandler) getLayout(ctx context.Context, in *idParam) (*layoutOutput, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.Get(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("dashboard not found")
	}
	wps, err := h.widgetPositions(ctx, tid, in.ID)
	if err != nil {
		return nil, err
	}
	ls := layout.FromWidgets(wps)
	return &layoutOutput{Body: schema.Layout{
		Lg: itemsToSchema(ls[layout.Lg]),
		Md: itemsToSchema(ls[layout.Md]),
		Sm: itemsToSchema(ls[layout.Sm]),
	}}, nil
}

// dashSaver persists per-widget positions for one dashboard.
type dashSaver struct {
	repo        *dashrepo.Repo
	dashboardID int64
}

func (s dashSaver) SaveWidgetPosition(ctx context.Context, widgetID string, pos layout.Position) error {
	return s.repo.UpdatePosition(ctx, s.dashboardID, widgetID, pos)
}

func (h *DashboardHandler) saveLayout(ctx context.Context, in *saveLayoutInput) (*layoutOutput, error) {
	tid := tenant.FromContext(ctx)
	if _, err := h.Repo.Get(ctx, tid, in.ID); err != nil {
		return nil, huma.Error404NotFound("dashboard not found")
	}
	wps, err := h.widgetPositions(ctx, tid, in.ID)
	if err != nil {
		return nil, err
	}
	eng := layout.NewEngine(dashSaver{repo: h.Repo, dashboardID: in.ID}, wps)
	eng.BeginEdit()
	items := make([]layout.Item, len(in.Body.Items))
	for i, it := range in.Body.Items {
		items[i] = layout.ItemFrom(it.I, layout.Position{X: it.X, Y: it.Y, W: it.W, H: it.H})
	}
	if err := eng.Apply(layout.Lg, items); err != nil {
		return nil, err
	}
	if err := eng.Save(ctx); err != nil {
		metrics.LayoutSaves.WithLabelValues("error").Inc()
		// Writes that already landed are kept; the client stays in edit
		// mode and may retry.
		return nil, huma.Error502BadGateway("failed to save layout")
	}
	metrics.LayoutSaves.WithLabelValues("ok").Inc()
	events.Emit(ctx, events.Event{Name: events.LayoutSaved, Time: time.Now(), Data: map[string]any{"dashboard": in.ID}})
	return &layoutOutput{Body: schema.Layout{
		Lg: itemsToSchema(eng.Items(layout.Lg)),
		Md: itemsToSchema(eng.Items(layout.Md)),
		Sm: itemsToSchema(eng.Items(layout.Sm)),
	}}, nil
}
