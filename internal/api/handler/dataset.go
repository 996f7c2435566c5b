package handler

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	"github.com/faciam-dev/gridbi/internal/connections"
	datasetsrepo "github.com/faciam-dev/gridbi/internal/repository/datasets"
	"github.com/faciam-dev/gridbi/internal/tenant"
)

// DatasetHandler manages saved queries via REST.
type DatasetHandler struct {
	Repo        *datasetsrepo.Repo
	Connections *connections.Repo
}

type createDatasetInput struct{ Body schema.CreateDataset }
type datasetOutput struct{ Body schema.Dataset }
type listDatasetOutput struct{ Body []schema.Dataset }

type updateDatasetInput struct {
	ID   int64 `path:"id"`
	Body schema.UpdateDataset
}

// RegisterDataset registers dataset endpoints.
func RegisterDataset(api huma.API, h *DatasetHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listDatasets",
		Method:      http.MethodGet,
		Path:        "/v1/datasets",
		Summary:     "List datasets",
		Tags:        []string{"Dataset"},
	}, h.list)
	huma.Register(api, huma.Operation{
		OperationID:   "createDataset",
		Method:        http.MethodPost,
		Path:          "/v1/datasets",
		Summary:       "Save a query as a dataset",
		Tags:          []string{"Dataset"},
		DefaultStatus: http.StatusCreated,
	}, h.create)
	huma.Register(api, huma.Operation{
		OperationID: "getDataset",
		Method:      http.MethodGet,
		Path:        "/v1/datasets/{id}",
		Summary:     "Get dataset",
		Tags:        []string{"Dataset"},
	}, h.get)
	huma.Register(api, huma.Operation{
		OperationID: "updateDataset",
		Method:      http.MethodPut,
		Path:        "/v1/datasets/{id}",
		Summary:     "Update dataset",
		Tags:        []string{"Dataset"},
	}, h.update)
	huma.Register(api, huma.Operation{
		OperationID:   "deleteDataset",
		Method:        http.MethodDelete,
		Path:          "/v1/datasets/{id}",
		Summary:       "Delete dataset",
		Tags:          []string{"Dataset"},
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
}

func datasetToSchema(d datasetsrepo.Dataset) schema.Dataset {
	return schema.Dataset{ID: d.ID, Name: d.Name, ConnectionID: d.ConnectionID, Query: d.Query, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

// checkConnection verifies the referenced connection exists for the tenant.
func (h *DatasetHandler) checkConnection(ctx context.Context, tid string, id int64) error {
	if _, err := h.Connections.Get(ctx, tid, id); err != nil {
		return huma.Error422UnprocessableEntity("connection not found")
	}
	return nil
}

func (h *DatasetHandler) list(ctx context.Context, _ *struct{}) (*listDatasetOutput, error) {
	tid := tenant.FromContext(ctx)
	ds, err := h.Repo.List(ctx, tid)
	if err != nil {
		return nil, err
	}
	res := make([]schema.Dataset, len(ds))
	for i, d := range ds {
		res[i] = datasetToSchema(d)
	}
	return &listDatasetOutput{Body: res}, nil
}

func (h *DatasetHandler) create(ctx context.Context, in *createDatasetInput) (*datasetOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := h.checkConnection(ctx, tid, in.Body.ConnectionID); err != nil {
		return nil, err
	}
	id, err := h.Repo.Create(ctx, datasetsrepo.Dataset{
		TenantID:     tid,
		Name:         in.Body.Name,
		ConnectionID: in.Body.ConnectionID,
		Query:        in.Body.Query,
	})
	if err != nil {
		return nil, err
	}
	return &datasetOutput{Body: schema.Dataset{ID: id, Name: in.Body.Name, ConnectionID: in.Body.ConnectionID, Query: in.Body.Query}}, nil
}

func (h *DatasetHandler) get(ctx context.Context, in *idParam) (*datasetOutput, error) {
	tid := tenant.FromContext(ctx)
	d, err := h.Repo.Get(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("dataset not found")
	}
	return &datasetOutput{Body: datasetToSchema(d)}, nil
}

func (h *DatasetHandler) update(ctx context.Context, in *updateDatasetInput) (*datasetOutput, error) {
	tid := tenant.FromContext(ctx)
	if err := h.checkConnection(ctx, tid, in.Body.ConnectionID); err != nil {
		return nil, err
	}
	if err := h.Repo.Update(ctx, tid, in.ID, in.Body.Name, in.Body.ConnectionID, in.Body.Query); err != nil {
		return nil, err
	}
	d, err := h.Repo.Get(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("dataset not found")
	}
	return &datasetOutput{Body: datasetToSchema(d)}, nil
}

func (h *DatasetHandler) delete(ctx context.Context, in *idParam) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Repo.Delete(ctx, tid, in.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
