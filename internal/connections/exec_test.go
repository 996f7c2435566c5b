package connections

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-resty/resty/v2"
)

func TestQuerySQLClassifiesColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"region", "revenue"}).
		AddRow("east", 120.5).
		AddRow("west", 99.0)
	mock.ExpectQuery("SELECT region, revenue FROM sales").WillReturnRows(rows)

	svc := &Service{}
	res, err := svc.querySQL(context.Background(), db, "SELECT region, revenue FROM sales")
	if err != nil {
		t.Fatalf("querySQL: %v", err)
	}
	if res.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", res.RowCount)
	}
	if len(res.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(res.Columns))
	}
	if res.Rows[0]["region"] != "east" {
		t.Fatalf("unexpected row value: %v", res.Rows[0]["region"])
	}
}

func TestQuerySQLRowCap(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 5; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery("SELECT n FROM t").WillReturnRows(rows)

	svc := &Service{MaxRows: 3}
	res, err := svc.querySQL(context.Background(), db, "SELECT n FROM t")
	if err != nil {
		t.Fatalf("querySQL: %v", err)
	}
	if res.RowCount != 3 || !res.Truncated {
		t.Fatalf("expected 3 truncated rows, got %d truncated=%v", res.RowCount, res.Truncated)
	}
}

func TestQuerySQLSurfacesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(context.DeadlineExceeded)

	svc := &Service{}
	_, err = svc.querySQL(context.Background(), db, "SELECT broken")
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := err.(*QueryError); !ok {
		t.Fatalf("expected *QueryError, got %T", err)
	}
}

func TestExecuteRESTArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"a","count":3},{"name":"b","count":5}]`))
	}))
	defer srv.Close()

	svc := &Service{HTTP: resty.New()}
	res, err := svc.executeREST(context.Background(), srv.URL, "items")
	if err != nil {
		t.Fatalf("executeREST: %v", err)
	}
	if res.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", res.RowCount)
	}
	got := map[string]string{}
	for _, c := range res.Columns {
		got[c.Name] = c.Type
	}
	if got["count"] != "number" || got["name"] != "string" {
		t.Fatalf("unexpected column types: %v", got)
	}
}

func TestExecuteRESTEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"v":1}]}`))
	}))
	defer srv.Close()

	svc := &Service{HTTP: resty.New()}
	res, err := svc.executeREST(context.Background(), srv.URL, "/")
	if err != nil {
		t.Fatalf("executeREST: %v", err)
	}
	if res.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", res.RowCount)
	}
}

func TestExecuteRESTErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := &Service{HTTP: resty.New()}
	if _, err := svc.executeREST(context.Background(), srv.URL, "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExecuteCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	data := "region,revenue,note\neast,120.5,ok\nwest,99,\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc := &Service{}
	res, err := svc.executeCSV(path)
	if err != nil {
		t.Fatalf("executeCSV: %v", err)
	}
	if res.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", res.RowCount)
	}
	want := []Column{{Name: "region", Type: "string"}, {Name: "revenue", Type: "number"}, {Name: "note", Type: "string"}}
	for i, c := range res.Columns {
		if c != want[i] {
			t.Fatalf("column %d: got %+v want %+v", i, c, want[i])
		}
	}
	if res.Rows[0]["revenue"] != 120.5 {
		t.Fatalf("expected numeric value, got %v", res.Rows[0]["revenue"])
	}
}

func TestColumnSetsPartition(t *testing.T) {
	res := Result{Columns: []Column{
		{Name: "region", Type: "string"},
		{Name: "revenue", Type: "number"},
	}}
	cols := res.ColumnSets()
	if len(cols.Numeric) != 1 || cols.Numeric[0] != "revenue" {
		t.Fatalf("unexpected numeric columns: %v", cols.Numeric)
	}
	if len(cols.String) != 1 || cols.String[0] != "region" {
		t.Fatalf("unexpected string columns: %v", cols.String)
	}
}
