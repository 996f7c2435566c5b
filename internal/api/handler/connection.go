package handler

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	"github.com/faciam-dev/gridbi/internal/connections"
	"github.com/faciam-dev/gridbi/internal/tenant"
	"github.com/faciam-dev/gridbi/pkg/crypto"
	pkgutil "github.com/faciam-dev/gridbi/pkg/util"
)

// ConnectionHandler manages data connections via REST.
type ConnectionHandler struct {
	Repo *connections.Repo
	Svc  *connections.Service
}

type createConnInput struct{ Body schema.CreateConnection }
type createConnOutput struct{ Body schema.Connection }

type updateConnInput struct {
	ID   int64 `path:"id"`
	Body schema.UpdateConnection
}

type listConnOutput struct{ Body []schema.Connection }

type tablesOutput struct {
	Body struct {
		Items []connections.TableInfo `json:"items"`
	}
}

type executeQueryInput struct{ Body schema.ExecuteQuery }
type executeQueryOutput struct{ Body schema.QueryResult }

type idParam struct {
	ID int64 `path:"id"`
}

// RegisterConnection registers connection endpoints.
func RegisterConnection(api huma.API, h *ConnectionHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listConnections",
		Method:      http.MethodGet,
		Path:        "/v1/connections",
		Summary:     "List connections",
		Tags:        []string{"Connection"},
	}, h.list)
	huma.Register(api, huma.Operation{
		OperationID:   "createConnection",
		Method:        http.MethodPost,
		Path:          "/v1/connections",
		Summary:       "Add connection",
		Tags:          []string{"Connection"},
		DefaultStatus: http.StatusCreated,
	}, h.create)
	huma.Register(api, huma.Operation{
		OperationID: "getConnection",
		Method:      http.MethodGet,
		Path:        "/v1/connections/{id}",
		Summary:     "Get connection",
		Tags:        []string{"Connection"},
	}, h.get)
	huma.Register(api, huma.Operation{
		OperationID: "updateConnection",
		Method:      http.MethodPut,
		Path:        "/v1/connections/{id}",
		Summary:     "Update connection",
		Tags:        []string{"Connection"},
	}, h.update)
	huma.Register(api, huma.Operation{
		OperationID:   "deleteConnection",
		Method:        http.MethodDelete,
		Path:          "/v1/connections/{id}",
		Summary:       "Delete connection",
		Tags:          []string{"Connection"},
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
	huma.Register(api, huma.Operation{
		OperationID: "listConnectionTables",
		Method:      http.MethodGet,
		Path:        "/v1/connections/{id}/tables",
		Summary:     "List tables on a connection",
		Tags:        []string{"Connection"},
	}, h.tables)
	huma.Register(api, huma.Operation{
		OperationID: "executeQuery",
		Method:      http.MethodPost,
		Path:        "/v1/connections/execute-query",
		Summary:     "Run an ad-hoc query",
		Tags:        []string{"Connection"},
	}, h.execute)
}

func connKind(k string) (connections.Kind, error) {
	switch connections.Kind(k) {
	case connections.KindSQL, connections.KindREST, connections.KindCSV:
		return connections.Kind(k), nil
	}
	return "", huma.Error422UnprocessableEntity("unsupported connection kind")
}

func (h *ConnectionHandler) create(ctx context.Context, in *createConnInput) (*createConnOutput, error) {
	tid := tenant.FromContext(ctx)
	kind, err := connKind(in.Body.Kind)
	if err != nil {
		return nil, err
	}
	driver := in.Body.Driver
	if kind == connections.KindSQL && driver == "" {
		d, err := pkgutil.DetectDriver(in.Body.Secret)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("cannot detect driver from dsn")
		}
		driver = d
	}
	enc, err := crypto.Encrypt([]byte(in.Body.Secret))
	if err != nil {
		return nil, err
	}
	id, err := h.Repo.Create(ctx, connections.Connection{
		TenantID:  tid,
		Name:      in.Body.Name,
		Kind:      kind,
		Driver:    driver,
		SecretEnc: enc,
	})
	if err != nil {
		return nil, err
	}
	return &createConnOutput{Body: schema.Connection{ID: id, Name: in.Body.Name, Kind: string(kind), Driver: driver}}, nil
}

func (h *ConnectionHandler) list(ctx context.Context, _ *struct{}) (*listConnOutput, error) {
	tid := tenant.FromContext(ctx)
	cs, err := h.Repo.List(ctx, tid)
	if err != nil {
		return nil, err
	}
	res := make([]schema.Connection, len(cs))
	for i, c := range cs {
		res[i] = schema.Connection{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Driver: c.Driver, CreatedAt: c.CreatedAt}
	}
	return &listConnOutput{Body: res}, nil
}

func (h *ConnectionHandler) get(ctx context.Context, in *idParam) (*createConnOutput, error) {
	tid := tenant.FromContext(ctx)
	c, err := h.Repo.Get(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error404NotFound("connection not found")
	}
	return &createConnOutput{Body: schema.Connection{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Driver: c.Driver, CreatedAt: c.CreatedAt}}, nil
}

func (h *ConnectionHandler) update(ctx context.Context, in *updateConnInput) (*createConnOutput, error) {
	tid := tenant.FromContext(ctx)
	kind, err := connKind(in.Body.Kind)
	if err != nil {
		return nil, err
	}
	var enc []byte
	if in.Body.Secret != "" {
		enc, err = crypto.Encrypt([]byte(in.Body.Secret))
		if err != nil {
			return nil, err
		}
	}
	if err := h.Repo.Update(ctx, tid, in.ID, in.Body.Name, kind, in.Body.Driver, enc); err != nil {
		return nil, err
	}
	return &createConnOutput{Body: schema.Connection{ID: in.ID, Name: in.Body.Name, Kind: string(kind), Driver: in.Body.Driver}}, nil
}

func (h *ConnectionHandler) delete(ctx context.Context, in *idParam) (*struct{}, error) {
	tid := tenant.FromContext(ctx)
	if err := h.Repo.Delete(ctx, tid, in.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (h *ConnectionHandler) tables(ctx context.Context, in *idParam) (*tablesOutput, error) {
	tid := tenant.FromContext(ctx)
	items, err := h.Svc.ListTables(ctx, tid, in.ID)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	out := &tablesOutput{}
	out.Body.Items = items
	return out, nil
}

func (h *ConnectionHandler) execute(ctx context.Context, in *executeQueryInput) (*executeQueryOutput, error) {
	tid := tenant.FromContext(ctx)
	res, err := h.Svc.Execute(ctx, tid, in.Body.ConnectionID, in.Body.Query)
	if err != nil {
		// Query failures are user errors, not server faults; the editor
		// surfaces them and stays usable.
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	cols := res.ColumnSets()
	return &executeQueryOutput{Body: schema.QueryResult{
		Columns:   res.Columns,
		Rows:      res.Rows,
		RowCount:  res.RowCount,
		Truncated: res.Truncated,
		String:    cols.String,
		Numeric:   cols.Numeric,
		All:       cols.All,
	}}, nil
}
