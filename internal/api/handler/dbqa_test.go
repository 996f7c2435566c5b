package handler

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	ormdriver "github.com/faciam-dev/goquent/orm/driver"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	"github.com/faciam-dev/gridbi/internal/dbqa"
	"github.com/faciam-dev/gridbi/internal/tenant"
)

func qaQueryRows() *sqlmock.Rows {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "name", "category", "connection_id", "sql_text",
		"frequency", "created_at", "updated_at",
	}).AddRow(5, "t1", "null emails", "integrity", 2,
		"SELECT COUNT(*) AS cnt FROM users WHERE email IS NULL", "daily", now, now)
}

func TestCreateAlertRejectsBadCondition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &dbqa.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_db_qa_queries").WithArgs("t1", int64(5)).
		WillReturnRows(qaQueryRows())

	h := &DbQaHandler{Repo: repo}
	ctx := tenant.WithTenant(context.Background(), "t1")
	_, err = h.createAlert(ctx, &createAlertInput{Body: schema.CreateDbQaAlert{
		QueryID:   5,
		Name:      "rows present",
		Condition: dbqa.Condition{Type: dbqa.CondRowCount, Value: "10"},
		Severity:  "warning",
		Channels:  []string{"slack"},
	}})
	if err == nil {
		t.Fatalf("expected condition validation failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db expectations: %v", err)
	}
}

func TestCreateAlertUnknownQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &dbqa.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}
	mock.ExpectQuery("SELECT .+ FROM .?gridbi_db_qa_queries").WithArgs("t1", int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "name", "category", "connection_id", "sql_text",
			"frequency", "created_at", "updated_at",
		}))

	h := &DbQaHandler{Repo: repo}
	ctx := tenant.WithTenant(context.Background(), "t1")
	_, err = h.createAlert(ctx, &createAlertInput{Body: schema.CreateDbQaAlert{
		QueryID:   99,
		Name:      "orphan",
		Condition: dbqa.Condition{Type: dbqa.CondErrorPresence},
		Severity:  "info",
	}})
	if err == nil {
		t.Fatalf("expected unknown query to be rejected")
	}
}
