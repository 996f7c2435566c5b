package dashrepo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	ormdriver "github.com/faciam-dev/goquent/orm/driver"

	"github.com/faciam-dev/gridbi/internal/layout"
)

func TestPlacementsDecodePositions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	r := &Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}
	rows := sqlmock.NewRows([]string{"dashboard_id", "widget_id", "position"}).
		AddRow(1, "w1", []byte(`{"x":0,"y":0,"w":6,"h":4}`)).
		AddRow(1, "w2", nil)

	mock.ExpectQuery("SELECT .+ FROM .?gridbi_dashboard_widgets").
		WithArgs(int64(1)).WillReturnRows(rows)

	ps, err := r.Placements(context.Background(), 1)
	if err != nil {
		t.Fatalf("Placements: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(ps))
	}
	if ps[0].Position == nil || ps[0].Position.W != 6 {
		t.Fatalf("unexpected position: %+v", ps[0].Position)
	}
	if ps[1].Position != nil {
		t.Fatalf("expected nil position for w2")
	}
}

func TestUpdatePositionWritesJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	r := &Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}
	mock.ExpectExec("UPDATE .?gridbi_dashboard_widgets").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.UpdatePosition(context.Background(), 1, "w1", layout.Position{X: 6, Y: 0, W: 6, H: 4}); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
}

func TestDeleteRemovesPlacementsFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	r := &Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}
	mock.ExpectExec("DELETE FROM .?gridbi_dashboard_widgets").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM .?gridbi_dashboards").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.Delete(context.Background(), "t1", 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
