package handler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	ormdriver "github.com/faciam-dev/goquent/orm/driver"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	dashrepo "github.com/faciam-dev/gridbi/internal/repository/dashboards"
	widgetsrepo "github.com/faciam-dev/gridbi/internal/repository/widgets"
	"github.com/faciam-dev/gridbi/internal/tenant"
)

var testStamp = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func dashboardRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "name", "description", "created_at", "updated_at"}).
		AddRow(7, "t1", "Sales", nil, testStamp, testStamp)
}

func TestGetLayoutMergesPlacementOverrides(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &dashrepo.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}
	widgets := &widgetsrepo.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}

	mock.ExpectQuery("SELECT .+ FROM .?gridbi_dashboards").WithArgs("t1", int64(7)).
		WillReturnRows(dashboardRows())
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_dashboard_widgets").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"dashboard_id", "widget_id", "position"}).
			AddRow(7, "w1", []byte(`{"x":6,"y":0,"w":4,"h":3}`)).
			AddRow(7, "w2", nil))
	// w2 has no override, its own default position is consulted.
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_widgets").WithArgs("t1", "w2").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "name", "description", "type",
			"dataset_id", "connection_id", "custom_query",
			"config", "position", "created_at", "updated_at",
		}).AddRow("w2", "t1", "Trend", nil, "chart", 1, nil, nil,
			[]byte(`{"chartType":"line"}`), []byte(`{"x":0,"y":3,"w":8,"h":4}`),
			testStamp, testStamp))

	h := &DashboardHandler{Repo: repo, Widgets: widgets}
	ctx := tenant.WithTenant(context.Background(), "t1")
	out, err := h.getLayout(ctx, &idParam{ID: 7})
	if err != nil {
		t.Fatalf("getLayout: %v", err)
	}
	if len(out.Body.Lg) != 2 || len(out.Body.Md) != 2 || len(out.Body.Sm) != 2 {
		t.Fatalf("unexpected layout sizes: %+v", out.Body)
	}
	if it := out.Body.Lg[0]; it.I != "w1" || it.X != 6 || it.W != 4 {
		t.Fatalf("override not applied: %+v", it)
	}
	if it := out.Body.Lg[1]; it.I != "w2" || it.Y != 3 || it.W != 8 {
		t.Fatalf("widget default not applied: %+v", it)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db expectations: %v", err)
	}
}

func TestSaveLayoutPersistsPositions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &dashrepo.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}

	mock.ExpectQuery("SELECT .+ FROM .?gridbi_dashboards").WithArgs("t1", int64(7)).
		WillReturnRows(dashboardRows())
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_dashboard_widgets").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"dashboard_id", "widget_id", "position"}).
			AddRow(7, "w1", []byte(`{"x":0,"y":0,"w":6,"h":4}`)))
	mock.ExpectExec("UPDATE .?gridbi_dashboard_widgets").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &DashboardHandler{Repo: repo}
	ctx := tenant.WithTenant(context.Background(), "t1")
	out, err := h.saveLayout(ctx, &saveLayoutInput{ID: 7, Body: schema.SaveLayout{
		Items: []schema.LayoutItem{{I: "w1", X: 3, Y: 1, W: 5, H: 4}},
	}})
	if err != nil {
		t.Fatalf("saveLayout: %v", err)
	}
	if it := out.Body.Lg[0]; it.X != 3 || it.Y != 1 || it.W != 5 {
		t.Fatalf("saved item mismatch: %+v", it)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db expectations: %v", err)
	}
}

func TestSaveLayoutWriteFailureKeepsEditMode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &dashrepo.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}

	mock.ExpectQuery("SELECT .+ FROM .?gridbi_dashboards").WithArgs("t1", int64(7)).
		WillReturnRows(dashboardRows())
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_dashboard_widgets").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"dashboard_id", "widget_id", "position"}).
			AddRow(7, "w1", []byte(`{"x":0,"y":0,"w":6,"h":4}`)))
	mock.ExpectExec("UPDATE .?gridbi_dashboard_widgets").
		WillReturnError(fmt.Errorf("disk full"))

	h := &DashboardHandler{Repo: repo}
	ctx := tenant.WithTenant(context.Background(), "t1")
	_, err = h.saveLayout(ctx, &saveLayoutInput{ID: 7, Body: schema.SaveLayout{
		Items: []schema.LayoutItem{{I: "w1", X: 3, Y: 1, W: 5, H: 4}},
	}})
	if err == nil {
		t.Fatalf("expected save failure to surface")
	}
}
