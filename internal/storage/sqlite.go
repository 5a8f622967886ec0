package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names a supported relational backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// DB wraps a relational database connection.
type DB struct {
	conn   *sql.DB
	driver Driver
}

// New creates a new DB, opening (or creating) the SQLite file at dbPath.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := Open(DriverSQLite, dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// SQLite only supports one writer; a single connection avoids SQLITE_BUSY
	db.conn.SetMaxOpenConns(1)
	return db, nil
}

// Open connects to driver with dsn and applies migrations.
func Open(driver Driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	conn, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Driver() Driver {
	return db.driver
}

// rebind rewrites ? placeholders for drivers that use numbered parameters.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) migrate() error {
	longText := "TEXT"
	if db.driver == DriverMySQL {
		longText = "LONGTEXT"
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS, so its indexes are declared inline.
	inlineIndex := func(def string) string {
		if db.driver == DriverMySQL {
			return ",\n\t\t\t" + def
		}
		return ""
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS templates (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			color VARCHAR(32) NOT NULL DEFAULT '#FFFFFF',
			width DOUBLE PRECISION NOT NULL DEFAULT 500,
			height DOUBLE PRECISION NOT NULL DEFAULT 700,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS elements (
			id VARCHAR(64) NOT NULL,
			template_id VARCHAR(64) NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			kind VARCHAR(16) NOT NULL,
			x DOUBLE PRECISION NOT NULL DEFAULT 0,
			y DOUBLE PRECISION NOT NULL DEFAULT 0,
			width DOUBLE PRECISION NOT NULL DEFAULT 0,
			height DOUBLE PRECISION NOT NULL DEFAULT 0,
			z_index INTEGER NOT NULL DEFAULT 0,
			locked BOOLEAN NOT NULL DEFAULT FALSE,
			visible BOOLEAN NOT NULL DEFAULT TRUE,
			payload_json ` + longText + ` NOT NULL,
			PRIMARY KEY (template_id, id)` + inlineIndex("INDEX idx_elements_template (template_id)") + `
		)`,
		// Version log: one labeled snapshot per recorded edit
		`CREATE TABLE IF NOT EXISTS versions (
			id VARCHAR(64) PRIMARY KEY,
			template_id VARCHAR(64) NOT NULL,
			parent_id VARCHAR(64),
			seq INTEGER NOT NULL,
			label VARCHAR(255) NOT NULL,
			snapshot_json ` + longText + ` NOT NULL,
			created_at TIMESTAMP NOT NULL` + inlineIndex("INDEX idx_versions_template (template_id, seq)") + `
		)`,
	}
	if db.driver != DriverMySQL {
		migrations = append(migrations,
			`CREATE INDEX IF NOT EXISTS idx_elements_template ON elements(template_id)`,
			`CREATE INDEX IF NOT EXISTS idx_versions_template ON versions(template_id, seq)`,
		)
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", migrationName(m), err)
		}
	}
	return nil
}

// migrationName shortens a statement for error messages.
func migrationName(stmt string) string {
	s := strings.Join(strings.Fields(stmt), " ")
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
