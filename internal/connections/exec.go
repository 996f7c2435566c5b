package connections

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/faciam-dev/gridbi/internal/widget"
	"github.com/faciam-dev/gridbi/pkg/crypto"
	"github.com/faciam-dev/gridbi/pkg/metrics"
)

// DefaultMaxRows caps preview result sets.
const DefaultMaxRows = 1000

// Column describes one result column. Type is "number" or "string".
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result is a query result in column/row form.
type Result struct {
	Columns  []Column         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"rowCount"`
	// Truncated is set when the row cap cut the result short.
	Truncated bool `json:"truncated,omitempty"`
}

// ColumnSets partitions the result columns for the field mapping resolver.
func (r Result) ColumnSets() widget.Columns {
	var cols widget.Columns
	for _, c := range r.Columns {
		cols.All = append(cols.All, c.Name)
		if c.Type == "number" {
			cols.Numeric = append(cols.Numeric, c.Name)
		} else {
			cols.String = append(cols.String, c.Name)
		}
	}
	return cols
}

// QueryError is the structured, non-fatal error surfaced to the editor when
// a user query fails. The editor stays usable and the user may retry.
type QueryError struct {
	Message string `json:"message"`
	Err     string `json:"error"`
}

func (e *QueryError) Error() string { return e.Message + ": " + e.Err }

// Service executes ad-hoc queries against user connections.
type Service struct {
	Repo    *Repo
	HTTP    *resty.Client
	MaxRows int
}

func (s *Service) maxRows() int {
	if s.MaxRows > 0 {
		return s.MaxRows
	}
	return DefaultMaxRows
}

// Execute runs a query against the identified connection. For SQL
// connections the query is SQL text; for REST it is a path appended to the
// base URL; for CSV it is ignored.
func (s *Service) Execute(ctx context.Context, tenant string, connID int64, queryText string) (Result, error) {
	conn, err := s.Repo.Get(ctx, tenant, connID)
	if err != nil {
		return Result{}, &QueryError{Message: "connection not found", Err: err.Error()}
	}
	secret, err := crypto.Decrypt(conn.SecretEnc)
	if err != nil {
		return Result{}, &QueryError{Message: "cannot decrypt connection secret", Err: err.Error()}
	}
	start := time.Now()
	var res Result
	switch conn.Kind {
	case KindSQL:
		res, err = s.executeSQL(ctx, conn.Driver, string(secret), queryText)
	case KindREST:
		res, err = s.executeREST(ctx, string(secret), queryText)
	case KindCSV:
		res, err = s.executeCSV(string(secret))
	default:
		err = &QueryError{Message: "unsupported connection kind", Err: string(conn.Kind)}
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.QueryExecutions.WithLabelValues(string(conn.Kind), status).Inc()
	metrics.QueryDuration.WithLabelValues(string(conn.Kind)).Observe(time.Since(start).Seconds())
	return res, err
}

// executeSQL provisions a short-lived pool for the target database and closes
// it whatever the query's outcome. Each request targets a different database,
// so leaking these pools is the primary failure mode to guard against.
func (s *Service) executeSQL(ctx context.Context, driver, dsn, queryText string) (Result, error) {
	if driver == "mongo" {
		return Result{}, &QueryError{Message: "query execution is not supported for mongo connections", Err: "use the tables listing instead"}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return Result{}, &QueryError{Message: "cannot open connection", Err: err.Error()}
	}
	defer db.Close()
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(time.Minute)
	return s.querySQL(ctx, db, queryText)
}

func (s *Service) querySQL(ctx context.Context, db *sql.DB, queryText string) (Result, error) {
	rows, err := db.QueryContext(ctx, queryText)
	if err != nil {
		return Result{}, &QueryError{Message: "query failed", Err: err.Error()}
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return Result{}, &QueryError{Message: "cannot read result columns", Err: err.Error()}
	}
	types, _ := rows.ColumnTypes()

	res := Result{Columns: make([]Column, len(names))}
	for i, n := range names {
		typ := "string"
		if i < len(types) && numericDBType(types[i].DatabaseTypeName()) {
			typ = "number"
		}
		res.Columns[i] = Column{Name: n, Type: typ}
	}

	max := s.maxRows()
	vals := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if len(res.Rows) >= max {
			res.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, &QueryError{Message: "row scan failed", Err: err.Error()}
		}
		row := make(map[string]any, len(names))
		for i, n := range names {
			row[n] = normalizeValue(vals[i])
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, &QueryError{Message: "query failed", Err: err.Error()}
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

var numericDBTypes = map[string]struct{}{
	"INT": {}, "INT2": {}, "INT4": {}, "INT8": {}, "INTEGER": {}, "BIGINT": {},
	"SMALLINT": {}, "TINYINT": {}, "MEDIUMINT": {}, "DECIMAL": {}, "NUMERIC": {},
	"FLOAT": {}, "FLOAT4": {}, "FLOAT8": {}, "DOUBLE": {}, "REAL": {},
}

func numericDBType(name string) bool {
	_, ok := numericDBTypes[strings.ToUpper(name)]
	return ok
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}

// executeREST fetches a JSON document from the connection's base URL plus the
// given path and flattens it to rows. Both bare arrays and {"data": [...]}
// envelopes are accepted.
func (s *Service) executeREST(ctx context.Context, baseURL, path string) (Result, error) {
	cli := s.HTTP
	if cli == nil {
		cli = resty.New().SetTimeout(15 * time.Second)
	}
	resp, err := cli.R().SetContext(ctx).Get(strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return Result{}, &QueryError{Message: "request failed", Err: err.Error()}
	}
	if resp.IsError() {
		return Result{}, &QueryError{Message: "request failed", Err: resp.Status()}
	}
	var records []map[string]any
	body := resp.Body()
	if err := json.Unmarshal(body, &records); err != nil {
		var envelope struct {
			Data []map[string]any `json:"data"`
		}
		if err2 := json.Unmarshal(body, &envelope); err2 != nil || envelope.Data == nil {
			return Result{}, &QueryError{Message: "malformed response", Err: "expected a JSON array of objects"}
		}
		records = envelope.Data
	}
	return tabulate(records, s.maxRows()), nil
}

// executeCSV reads the file at the connection's path. The header row names
// the columns; values that parse as numbers type the column as numeric.
func (s *Service) executeCSV(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, &QueryError{Message: "cannot open file", Err: err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return Result{}, &QueryError{Message: "cannot read header", Err: err.Error()}
	}
	max := s.maxRows()
	records := make([]map[string]any, 0)
	truncated := false
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, &QueryError{Message: "malformed csv", Err: err.Error()}
		}
		if len(records) >= max {
			truncated = true
			break
		}
		row := make(map[string]any, len(header))
		for i, name := range header {
			if i >= len(rec) {
				continue
			}
			if n, err := strconv.ParseFloat(rec[i], 64); err == nil && rec[i] != "" {
				row[name] = n
			} else {
				row[name] = rec[i]
			}
		}
		records = append(records, row)
	}
	res := Result{Rows: records, RowCount: len(records), Truncated: truncated}
	for _, name := range header {
		typ := "string"
		if columnAllNumeric(records, name) {
			typ = "number"
		}
		res.Columns = append(res.Columns, Column{Name: name, Type: typ})
	}
	return res, nil
}

func columnAllNumeric(records []map[string]any, name string) bool {
	found := false
	for _, rec := range records {
		switch rec[name].(type) {
		case float64:
			found = true
		case nil:
		default:
			return false
		}
	}
	return found
}

// tabulate derives typed columns from decoded records. A column is numeric
// when every non-nil value is a number.
func tabulate(records []map[string]any, max int) Result {
	if len(records) > max {
		records = records[:max]
	}
	var order []string
	seen := map[string]bool{}
	numeric := map[string]bool{}
	for _, rec := range records {
		for k, v := range rec {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
				numeric[k] = true
			}
			switch v.(type) {
			case float64, int, int64, json.Number:
			case nil:
			default:
				numeric[k] = false
			}
		}
	}
	sort.Strings(order)
	res := Result{Rows: records, RowCount: len(records)}
	for _, name := range order {
		typ := "string"
		if numeric[name] {
			typ = "number"
		}
		res.Columns = append(res.Columns, Column{Name: name, Type: typ})
	}
	return res
}
