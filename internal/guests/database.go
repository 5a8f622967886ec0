package guests

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ── Database Source ────────────────────────────────────────
// Runs one read query against a SQL database, e.g. an RSVP table.

type databaseSource struct{}

func init() { RegisterSource(&databaseSource{}) }

func (s *databaseSource) Spec() SourceSpec {
	return SourceSpec{
		Type:  "database",
		Label: "Database Query",
		ConfigFields: []ConfigField{
			{Key: "driver", Label: "Driver", Required: true, Options: []string{"sqlite", "postgres", "mysql"}},
			{Key: "dsn", Label: "DSN", Required: true, Help: "Driver connection string"},
			{Key: "query", Label: "Query", Required: true, Help: "SELECT returning one row per guest"},
		},
	}
}

func (s *databaseSource) Discover(ctx context.Context, cfg SourceConfig) (*Schema, error) {
	records, cols, err := s.query(ctx, cfg, 1)
	if err != nil {
		return nil, err
	}
	schema := &Schema{Fields: make([]Field, len(cols))}
	for i, c := range cols {
		typ := "text"
		if len(records) > 0 {
			typ = inferType(records[0].Data[c])
		}
		schema.Fields[i] = Field{Name: c, Type: typ}
	}
	return schema, nil
}

func (s *databaseSource) Read(ctx context.Context, cfg SourceConfig) (<-chan Record, <-chan error) {
	return emitAll(ctx, func() ([]Record, error) {
		records, _, err := s.query(ctx, cfg, 0)
		return records, err
	})
}

// query runs the configured SELECT. limit <= 0 reads every row.
func (s *databaseSource) query(ctx context.Context, cfg SourceConfig, limit int) ([]Record, []string, error) {
	driver, dsn, q := cfg.str("driver"), cfg.str("dsn"), cfg.str("query")
	switch driver {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, nil, fmt.Errorf("unsupported driver: %q", driver)
	}
	if dsn == "" || q == "" {
		return nil, nil, fmt.Errorf("dsn and query are required")
	}
	if !isReadQuery(q) {
		return nil, nil, fmt.Errorf("only read queries are allowed")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}

	var records []Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		data := make(map[string]any, len(cols))
		for i, c := range cols {
			data[c] = formatValue(values[i])
		}
		records = append(records, Record{Data: data})
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate: %w", err)
	}
	return records, cols, nil
}

func isReadQuery(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(q, "SELECT") || strings.HasPrefix(q, "WITH")
}

// formatValue normalizes driver values to text, numbers and booleans.
func formatValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}
