package handler

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	ormdriver "github.com/faciam-dev/goquent/orm/driver"

	"github.com/faciam-dev/gridbi/internal/api/schema"
	"github.com/faciam-dev/gridbi/internal/connections"
	"github.com/faciam-dev/gridbi/internal/tenant"
	"github.com/faciam-dev/gridbi/pkg/crypto"
)

func TestCreateDetectsDriverFromDSN(t *testing.T) {
	t.Setenv(crypto.EnvKey, "0123456789abcdef0123456789abcdef")
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &connections.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}
	mock.ExpectExec("INSERT INTO .?gridbi_connections").
		WillReturnResult(sqlmock.NewResult(3, 1))

	h := &ConnectionHandler{Repo: repo}
	ctx := tenant.WithTenant(context.Background(), "t1")
	out, err := h.create(ctx, &createConnInput{Body: schema.CreateConnection{
		Name:   "sales",
		Kind:   "sql",
		Secret: "postgres://bi:pw@db.internal/sales",
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Body.Driver != "postgres" {
		t.Fatalf("expected detected driver postgres, got %q", out.Body.Driver)
	}
}

func TestCreateRejectsUndetectableDSN(t *testing.T) {
	t.Setenv(crypto.EnvKey, "0123456789abcdef0123456789abcdef")
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	h := &ConnectionHandler{Repo: &connections.Repo{DB: db, Dialect: ormdriver.MySQLDialect{}, Driver: "mysql"}}
	ctx := tenant.WithTenant(context.Background(), "t1")
	if _, err := h.create(ctx, &createConnInput{Body: schema.CreateConnection{
		Name:   "bad",
		Kind:   "sql",
		Secret: "no scheme here",
	}}); err == nil {
		t.Fatalf("expected error for undetectable dsn")
	}
}
