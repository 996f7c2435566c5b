package connections

import (
	"context"
	"database/sql"
	"net/url"
	"sort"
	"strings"

	ormdriver "github.com/faciam-dev/goquent/orm/driver"
	"github.com/faciam-dev/goquent/orm/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pkgutil "github.com/faciam-dev/gridbi/pkg/util"
	"github.com/faciam-dev/gridbi/pkg/crypto"
)

// TableInfo identifies one table or collection on a connection.
type TableInfo struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`
}

// ListTables enumerates the tables (or collections) on a SQL or mongo
// connection. REST and CSV connections have no table concept.
func (s *Service) ListTables(ctx context.Context, tenant string, connID int64) ([]TableInfo, error) {
	conn, err := s.Repo.Get(ctx, tenant, connID)
	if err != nil {
		return nil, &QueryError{Message: "connection not found", Err: err.Error()}
	}
	if conn.Kind != KindSQL {
		return nil, &QueryError{Message: "connection has no tables", Err: string(conn.Kind)}
	}
	secret, err := crypto.Decrypt(conn.SecretEnc)
	if err != nil {
		return nil, &QueryError{Message: "cannot decrypt connection secret", Err: err.Error()}
	}
	if conn.Driver == "mongo" {
		return listCollections(ctx, string(secret))
	}
	dialect := pkgutil.DialectFromDriver(conn.Driver)
	db, err := sql.Open(conn.Driver, string(secret))
	if err != nil {
		return nil, &QueryError{Message: "cannot open connection", Err: err.Error()}
	}
	defer db.Close()
	return listSQLTables(ctx, db, dialect)
}

func listSQLTables(ctx context.Context, db *sql.DB, dialect ormdriver.Dialect) ([]TableInfo, error) {
	q := query.New(db, "information_schema.tables", dialect).
		SelectRaw("table_schema AS table_schema").
		SelectRaw("table_name AS table_name").
		Where("table_type", "BASE TABLE").
		OrderBy("table_schema", "asc").
		OrderBy("table_name", "asc")
	switch dialect.(type) {
	case ormdriver.PostgresDialect:
		q.WhereRaw("table_schema NOT IN ('pg_catalog','information_schema','pg_toast')", nil).
			WhereRaw("table_schema NOT LIKE 'pg_temp_%'", nil)
	case ormdriver.MySQLDialect:
		q.WhereRaw("table_schema = DATABASE()", nil)
	}
	type row struct {
		Schema string `db:"table_schema"`
		Name   string `db:"table_name"`
	}
	var rs []row
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	list := make([]TableInfo, 0, len(rs))
	for _, r := range rs {
		ti := TableInfo{Name: r.Name}
		if r.Schema != "" && r.Schema != "public" {
			ti.Schema = r.Schema
		}
		list = append(list, ti)
	}
	return list, nil
}

func listCollections(ctx context.Context, uri string) ([]TableInfo, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &QueryError{Message: "cannot connect to mongo", Err: err.Error()}
	}
	defer func() { _ = cli.Disconnect(ctx) }()
	dbName, err := connstringDatabase(uri)
	if err != nil {
		return nil, err
	}
	names, err := cli.Database(dbName).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, &QueryError{Message: "cannot list collections", Err: err.Error()}
	}
	sort.Strings(names)
	list := make([]TableInfo, 0, len(names))
	for _, n := range names {
		list = append(list, TableInfo{Name: n})
	}
	return list, nil
}

func connstringDatabase(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", &QueryError{Message: "malformed mongo uri", Err: err.Error()}
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", &QueryError{Message: "malformed mongo uri", Err: "database name missing from path"}
	}
	return name, nil
}

// Ping verifies a connection is reachable without running a query.
func (s *Service) Ping(ctx context.Context, tenant string, connID int64) error {
	conn, err := s.Repo.Get(ctx, tenant, connID)
	if err != nil {
		return &QueryError{Message: "connection not found", Err: err.Error()}
	}
	secret, err := crypto.Decrypt(conn.SecretEnc)
	if err != nil {
		return &QueryError{Message: "cannot decrypt connection secret", Err: err.Error()}
	}
	switch conn.Kind {
	case KindSQL:
		if conn.Driver == "mongo" {
			cli, err := mongo.Connect(ctx, options.Client().ApplyURI(string(secret)))
			if err != nil {
				return &QueryError{Message: "cannot connect to mongo", Err: err.Error()}
			}
			defer func() { _ = cli.Disconnect(ctx) }()
			if err := cli.Ping(ctx, nil); err != nil {
				return &QueryError{Message: "ping failed", Err: err.Error()}
			}
			return nil
		}
		db, err := sql.Open(conn.Driver, string(secret))
		if err != nil {
			return &QueryError{Message: "cannot open connection", Err: err.Error()}
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return &QueryError{Message: "ping failed", Err: err.Error()}
		}
		return nil
	case KindREST:
		_, err := s.executeREST(ctx, string(secret), "")
		return err
	case KindCSV:
		_, err := s.executeCSV(string(secret))
		return err
	}
	return &QueryError{Message: "unsupported connection kind", Err: string(conn.Kind)}
}
