package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	"github.com/faciam-dev/gridbi/internal/events"
	ihuma "github.com/faciam-dev/gridbi/internal/huma"
	regwidgets "github.com/faciam-dev/gridbi/internal/registry/widgets"
	widgetsrepo "github.com/faciam-dev/gridbi/internal/repository/widgets"
	"github.com/faciam-dev/gridbi/internal/tenant"
	"github.com/faciam-dev/gridbi/internal/widget"
)

// WidgetHandler manages widget definitions via REST.
type WidgetHandler struct {
	Repo *widgetsrepo.Repo
	// Catalog, when set, is refreshed after every widget write.
	Catalog *regwidgets.Refresher
}

type listWidgetsInput struct {
	Type   string `query:"type" enum:"chart,text,table,"`
	Q      string `query:"q"`
	Limit  int    `query:"limit" minimum:"0" maximum:"200"`
	Offset int    `query:"offset" minimum:"0"`
}

type listWidgetsOutput struct{ Body schema.WidgetList }

type widgetIDParam struct {
	ID string `path:"id"`
}

type getWidgetOutput struct{ Body schema.Widget }

type createWidgetInput struct{ Body schema.CreateWidget }

type updateWidgetInput struct {
	ID   string `path:"id"`
	Body schema.UpdateWidget
}

type fieldMapInput struct{ Body schema.FieldMapRequest }
type fieldMapOutput struct{ Body schema.FieldMapResponse }

// RegisterWidget registers widget endpoints.
func RegisterWidget(api huma.API, h *WidgetHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listWidgets",
		Method:      http.MethodGet,
		Path:        "/v1/widgets",
		Summary:     "List widgets",
		Tags:        []string{"Widget"},
	}, h.list)
	huma.Register(api, huma.Operation{
		OperationID:   "createWidget",
		Method:        http.MethodPost,
		Path:          "/v1/widgets",
		Summary:       "Create widget",
		Tags:          []string{"Widget"},
		DefaultStatus: http.StatusCreated,
	}, h.create)
	huma.Register(api, huma.Operation{
		OperationID: "getWidget",
		Method:      http.MethodGet,
		Path:        "/v1/widgets/{id}",
		Summary:     "Get widget",
		Tags:        []string{"Widget"},
	}, h.get)
	huma.Register(api, huma.Operation{
		OperationID: "updateWidget",
		Method:      http.MethodPut,
		Path:        "/v1/widgets/{id}",
		Summary:     "Update widget",
		Tags:        []string{"Widget"},
	}, h.update)
	huma.Register(api, huma.Operation{
		OperationID:   "deleteWidget",
		Method:        http.MethodDelete,
		Path:          "/v1/widgets/{id}",
		Summary:       "Delete widget",
		Tags:          []string{"Widget"},
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
	huma.Register(api, huma.Operation{
		OperationID: "resolveFieldMap",
		Method:      http.MethodPost,
		Path:        "/v1/widgets/field-map",
		Summary:     "Resolve applicable config controls",
		Tags:        []string{"Widget"},
	}, h.fieldMap)
}

// checkSource enforces the dataset-xor-connection rule for widget data
// sources.
func checkSource(datasetID, connectionID *int64, customQuery *string) error {
	if datasetID != nil && connectionID != nil {
		return ihuma.Error422("body", "datasetId and connectionId are mutually exclusive")
	}
	if datasetID == nil && connectionID == nil {
		return ihuma.Error422("body", "one of datasetId or connectionId is required")
	}
	if customQuery != nil && connectionID == nil {
		return ihuma.Error422("body.customQuery", "customQuery requires connectionId")
	}
	return nil
}

// checkConfig prunes cleared options and validates the configuration,
// translating problems into field-scoped 422 details.
func checkConfig(cfg *widget.Config, strict bool) error {
	cfg.Prune()
	var err error
	if strict {
		err = widget.ValidateStrict(*cfg)
	} else {
		err = widget.Validate(*cfg)
	}
	if err == nil {
		return nil
	}
	var verr *widget.ValidationError
	if errors.As(err, &verr) {
		details := make([]error, len(verr.Problems))
		for i, p := range verr.Problems {
			details[i] = &huma.ErrorDetail{Location: "body.config." + string(p.Key), Message: p.Message}
		}
		return huma.NewError(http.StatusUnprocessableEntity, "invalid widget config", details...)
	}
	return ihuma.Error422("body.config", err.Error())
}

func widgetToSchema(r widgetsrepo.Row) schema.Widget {
	return schema.Widget{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Type:         r.Type,
		DatasetID:    r.DatasetID,
		ConnectionID: r.ConnectionID,
		CustomQuery:  r.CustomQuery,
		Config:       r.Config,
		Position:     r.Position,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (h *WidgetHandler) list(ctx context.Context, in *listWidgetsInput) (*listWidgetsOutput, error) {
	tid := tenant.FromContext(ctx)
	limit := in.Limit
	if limit == 0 {
		limit = 50
	}
	rows, total, err := h.Repo.List(ctx, widgetsrepo.Filter{
		Tenant: tid,
		Type:   in.Type,
		Q:      in.Q,
		Limit:  limit,
		Offset: in.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &listWidgetsOutput{}
	out.Body.Total = total
	out.Body.Items = make([]schema.Widget, len(rows))
	for i, r := range rows {
		out.Body.Items[i] = widgetToSchema(r)
	}
	return out, nil
}

func (h *WidgetHandler) get(ctx context.Context, in *widgetIDParam) (*getWidgetOutput, error) {
	tid := tenant.FromContext(ctx)
	r, err := h.Repo.Get(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("widget not found")
	}
	return &getWidgetOutput{Body: widgetToSchema(r)}, nil
}

func (h *WidgetHandler) create(ctx context.Context, in *createWidgetInput) (*getWidgetOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := checkSource(in.Body.DatasetID, in.Body.ConnectionID, in.Body.CustomQuery); err != nil {
		return nil, err
	}
	cfg := in.Body.Config
	if err := checkConfig(&cfg, false); err != nil {
		return nil, err
	}
	row := widgetsrepo.Row{
		TenantID:     tid,
		Name:         in.Body.Name,
		Description:  in.Body.Description,
		Type:         in.Body.Type,
		DatasetID:    in.Body.DatasetID,
		ConnectionID: in.Body.ConnectionID,
		CustomQuery:  in.Body.CustomQuery,
		Config:       cfg,
		Position:     in.Body.Position,
	}
	id, err := h.Repo.Create(ctx, row)
	if err != nil {
		return nil, err
	}
	created, err := h.Repo.Get(ctx, tid, id)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, events.Event{Name: events.WidgetCreated, Time: time.Now(), Data: map[string]string{"id": id}, ID: id})
	h.Catalog.WidgetChanged(ctx, tid, id)
	return &getWidgetOutput{Body: widgetToSchema(created)}, nil
}

func (h *WidgetHandler) update(ctx context.Context, in *updateWidgetInput) (*getWidgetOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := checkSource(in.Body.DatasetID, in.Body.ConnectionID, in.Body.CustomQuery); err != nil {
		return nil, err
	}
	prev, err := h.Repo.Get(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("widget not found")
	}
	cfg := in.Body.Config
	if in.Body.ResetConfig && cfg.ChartType != prev.Config.ChartType {
		cfg.SetChartType(cfg.ChartType, true)
	}
	// Stale keys from a previous chart type are tolerated unless the
	// caller opted into the reset policy.
	if err := checkConfig(&cfg, in.Body.ResetConfig); err != nil {
		return nil, err
	}
	row := widgetsrepo.Row{
		ID:           in.ID,
		TenantID:     tid,
		Name:         in.Body.Name,
		Description:  in.Body.Description,
		Type:         in.Body.Type,
		DatasetID:    in.Body.DatasetID,
		ConnectionID: in.Body.ConnectionID,
		CustomQuery:  in.Body.CustomQuery,
		Config:       cfg,
		Position:     in.Body.Position,
	}
	if err := h.Repo.Update(ctx, tid, row); err != nil {
		return nil, err
	}
	updated, err := h.Repo.Get(ctx, tid, in.ID)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, events.Event{Name: events.WidgetUpdated, Time: time.Now(), Data: map[string]string{"id": in.ID}, ID: in.ID})
	h.Catalog.WidgetChanged(ctx, tid, in.ID)
	return &getWidgetOutput{Body: widgetToSchema(updated)}, nil
}

func (h *WidgetHandler) delete(ctx context.Context, in *widgetIDParam) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Repo.Delete(ctx, tid, in.ID); err != nil {
		return nil, err
	}
	events.Emit(ctx, events.Event{Name: events.WidgetDeleted, Time: time.Now(), Data: map[string]string{"id": in.ID}, ID: in.ID})
	h.Catalog.WidgetChanged(ctx, tid, in.ID)
	return &struct{}{}, nil
}

func (h *WidgetHandler) fieldMap(ctx context.Context, in *fieldMapInput) (*fieldMapOutput, error) {
	controls, err := widget.Resolve(in.Body.ChartType, in.Body.Columns)
	if err != nil {
		if errors.Is(err, widget.ErrNoColumns) {
			return nil, ihuma.Error422("body.columns", "no columns available")
		}
		return nil, ihuma.Error422("body.chartType", err.Error())
	}
	out := &fieldMapOutput{}
	out.Body.Controls = controls
	if in.Body.Config != nil {
		cfg := *in.Body.Config
		widget.ResolveModes(&cfg, in.Body.Columns)
		out.Body.Config = &cfg
	}
	return out, nil
}
