package widgets

import (
	"context"
	"database/sql"
	"testing"
	"time"

	widgetsrepo "github.com/faciam-dev/gridbi/internal/repository/widgets"
)

type stubStore struct {
	row widgetsrepo.Row
	err error
}

func (s stubStore) Get(context.Context, string, string) (widgetsrepo.Row, error) {
	return s.row, s.err
}
func (s stubStore) List(context.Context, widgetsrepo.Filter) ([]widgetsrepo.Row, int, error) {
	return nil, 0, nil
}

type stubReg struct {
	upserted []Summary
	removed  []string
}

func (s *stubReg) List(context.Context, Options) ([]Summary, int, string, time.Time, error) {
	return nil, 0, "", time.Time{}, nil
}
func (s *stubReg) Upsert(ctx context.Context, sum Summary) error {
	s.upserted = append(s.upserted, sum)
	return nil
}
func (s *stubReg) Remove(ctx context.Context, id string) error {
	s.removed = append(s.removed, id)
	return nil
}
func (s *stubReg) ApplyDiff(context.Context, []Summary, []string) (string, time.Time, error) {
	return "", time.Time{}, nil
}
func (s *stubReg) Subscribe() (<-chan Event, func()) { ch := make(chan Event); return ch, func() {} }

func TestRefresherUpsert(t *testing.T) {
	store := stubStore{row: widgetsrepo.Row{ID: "a", TenantID: "t1", Name: "A", Type: "bar", UpdatedAt: time.Now()}}
	reg := &stubReg{}
	r := &Refresher{Store: store, Reg: reg}
	r.WidgetChanged(context.Background(), "t1", "a")
	if len(reg.upserted) != 1 || reg.upserted[0].ID != "a" {
		t.Fatalf("upsert not called: %+v", reg.upserted)
	}
}

func TestRefresherRemoveOnMissing(t *testing.T) {
	store := stubStore{err: sql.ErrNoRows}
	reg := &stubReg{}
	r := &Refresher{Store: store, Reg: reg}
	r.WidgetChanged(context.Background(), "t1", "b")
	if len(reg.removed) != 1 || reg.removed[0] != "b" {
		t.Fatalf("remove not called: %+v", reg.removed)
	}
}

func TestRefresherNilIsNoop(t *testing.T) {
	var r *Refresher
	r.WidgetChanged(context.Background(), "t1", "x")
}

func TestPGListenerApply(t *testing.T) {
	store := stubStore{row: widgetsrepo.Row{ID: "a", TenantID: "t1", Name: "A", Type: "pie", UpdatedAt: time.Now()}}
	reg := &stubReg{}
	l := PGListener{Store: store, Reg: reg}
	l.apply(context.Background(), `{"tenant":"t1","id":"a"}`)
	if len(reg.upserted) != 1 || reg.upserted[0].ID != "a" {
		t.Fatalf("upsert not called: %+v", reg.upserted)
	}

	l = PGListener{Store: stubStore{err: sql.ErrNoRows}, Reg: reg}
	l.apply(context.Background(), `{"tenant":"t1","id":"gone"}`)
	if len(reg.removed) != 1 || reg.removed[0] != "gone" {
		t.Fatalf("remove not called: %+v", reg.removed)
	}
}
