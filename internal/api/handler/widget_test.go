package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/danielgtaylor/huma/v2"
	ormdriver "github.com/faciam-dev/goquent/orm/driver"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	widgetsrepo "github.com/faciam-dev/gridbi/internal/repository/widgets"
	"github.com/faciam-dev/gridbi/internal/tenant"
	"github.com/faciam-dev/gridbi/internal/widget"
)

func int64p(v int64) *int64 { return &v }

func TestCheckSourceRules(t *testing.T) {
	q := "SELECT 1"
	tests := []struct {
		name    string
		dataset *int64
		conn    *int64
		query   *string
		wantErr bool
	}{
		{"dataset only", int64p(1), nil, nil, false},
		{"connection only", nil, int64p(2), nil, false},
		{"connection with query", nil, int64p(2), &q, false},
		{"both sources", int64p(1), int64p(2), nil, true},
		{"no source", nil, nil, nil, true},
		{"query without connection", int64p(1), nil, &q, true},
	}
	for _, tt := range tests {
		err := checkSource(tt.dataset, tt.conn, tt.query)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: err=%v", tt.name, err)
		}
	}
}

func TestCreateWidgetReportsFieldLocation(t *testing.T) {
	h := &WidgetHandler{}
	ctx := tenant.WithTenant(context.Background(), "t1")
	in := &createWidgetInput{Body: schema.CreateWidget{
		Name:      "Bad",
		Type:      "chart",
		DatasetID: int64p(1),
		Config: widget.Config{
			ChartType: widget.ChartBar,
			XField:    &widget.FieldValue{Mode: widget.ModeNumeric, Value: "12"},
		},
	}}
	_, err := h.create(ctx, in)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var em *huma.ErrorModel
	if !errors.As(err, &em) {
		t.Fatalf("expected ErrorModel, got %T", err)
	}
	if em.Status != 422 {
		t.Fatalf("status = %d", em.Status)
	}
	if len(em.Errors) != 1 || em.Errors[0].Location != "body.config.xField" {
		t.Fatalf("unexpected details: %+v", em.Errors)
	}
}

func TestUpdateWidgetResetRejectsStaleKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &widgetsrepo.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}

	prev := `{"chartType":"pie","yField":{"mode":"field","value":"revenue"}}`
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "name", "description", "type",
		"dataset_id", "connection_id", "custom_query",
		"config", "position", "created_at", "updated_at",
	}).AddRow("w1", "t1", "Share", nil, "chart", 3, nil, nil, []byte(prev), nil,
		testStamp, testStamp)
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_widgets").WithArgs("t1", "w1").WillReturnRows(rows)

	h := &WidgetHandler{Repo: repo}
	ctx := tenant.WithTenant(context.Background(), "t1")
	in := &updateWidgetInput{ID: "w1", Body: schema.UpdateWidget{
		Name:        "Share",
		Type:        "chart",
		DatasetID:   int64p(3),
		ResetConfig: true,
		Config: widget.Config{
			ChartType: widget.ChartPie,
			YField:    &widget.FieldValue{Mode: widget.ModeField, Value: "revenue"},
			XField:    &widget.FieldValue{Mode: widget.ModeField, Value: "region"},
		},
	}}
	_, err = h.update(ctx, in)
	if err == nil {
		t.Fatalf("expected strict validation to reject xField on pie")
	}
	var em *huma.ErrorModel
	if !errors.As(err, &em) || em.Status != 422 {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateWidgetResetOnTypeChange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &widgetsrepo.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}

	cols := []string{
		"id", "tenant_id", "name", "description", "type",
		"dataset_id", "connection_id", "custom_query",
		"config", "position", "created_at", "updated_at",
	}
	prev := `{"chartType":"bar","xField":{"mode":"field","value":"region"},"yField":{"mode":"field","value":"revenue"}}`
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_widgets").WithArgs("t1", "w1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("w1", "t1", "Rev", nil, "chart", 3, nil, nil,
			[]byte(prev), nil, testStamp, testStamp))
	mock.ExpectExec("UPDATE .?gridbi_widgets").WillReturnResult(sqlmock.NewResult(0, 1))
	after := `{"chartType":"pie","yField":{"mode":"field","value":"revenue"}}`
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_widgets").WithArgs("t1", "w1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("w1", "t1", "Rev", nil, "chart", 3, nil, nil,
			[]byte(after), nil, testStamp, testStamp))

	h := &WidgetHandler{Repo: repo}
	ctx := tenant.WithTenant(context.Background(), "t1")
	in := &updateWidgetInput{ID: "w1", Body: schema.UpdateWidget{
		Name:        "Rev",
		Type:        "chart",
		DatasetID:   int64p(3),
		ResetConfig: true,
		Config: widget.Config{
			ChartType: widget.ChartPie,
			XField:    &widget.FieldValue{Mode: widget.ModeField, Value: "region"},
			YField:    &widget.FieldValue{Mode: widget.ModeField, Value: "revenue"},
		},
	}}
	out, err := h.update(ctx, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Body.Config.ChartType != widget.ChartPie {
		t.Fatalf("chart type = %q", out.Body.Config.ChartType)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db expectations: %v", err)
	}
}

func TestFieldMapNoColumns(t *testing.T) {
	h := &WidgetHandler{}
	in := &fieldMapInput{Body: schema.FieldMapRequest{ChartType: widget.ChartBar}}
	_, err := h.fieldMap(context.Background(), in)
	if err == nil {
		t.Fatalf("expected error for empty columns")
	}
}

func TestFieldMapResolvesControls(t *testing.T) {
	h := &WidgetHandler{}
	in := &fieldMapInput{Body: schema.FieldMapRequest{
		ChartType: widget.ChartBar,
		Columns: widget.Columns{
			String:  []string{"region"},
			Numeric: []string{"revenue"},
			All:     []string{"region", "revenue"},
		},
		Config: &widget.Config{
			ChartType: widget.ChartBar,
			XField:    &widget.FieldValue{Value: "region"},
		},
	}}
	out, err := h.fieldMap(context.Background(), in)
	if err != nil {
		t.Fatalf("fieldMap: %v", err)
	}
	if len(out.Body.Controls) == 0 {
		t.Fatalf("expected controls")
	}
	if out.Body.Config == nil || out.Body.Config.XField.Mode != widget.ModeField {
		t.Fatalf("expected legacy value to resolve to field mode: %+v", out.Body.Config)
	}
}
