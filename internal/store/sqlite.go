// Package store implements the catalog's storage collaborator on SQLite.
//
// Tables are addressed by name and column lists are passed through as given, so the
// package knows nothing about the catalog layout itself. Every connection gets two Go
// functions registered through the driver's connect hook:
//
//	regexp(pattern, value)  backs the REGEXP operator (Go regexp syntax, unanchored)
//	lower_utf8(value)       Unicode-aware lowercase; SQLite's lower() only folds ASCII
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by this package.
const DriverName = "sqlite3_everything"

// metaTable holds key/value catalog metadata (last reindex and so on).
const metaTable = "catalog_meta"

var (
	// ErrDuplicateKey is returned by Insert on a primary-key violation.
	ErrDuplicateKey = errors.New("duplicate primary key")
	// ErrTableExists is returned by CreateTable when the table is already defined.
	ErrTableExists = errors.New("table already exists")
	// ErrNoSuchTable is returned when a statement references a missing table.
	ErrNoSuchTable = errors.New("no such table")
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("regexp", matchPattern, true); err != nil {
				return fmt.Errorf("register regexp: %w", err)
			}
			if err := conn.RegisterFunc("lower_utf8", strings.ToLower, true); err != nil {
				return fmt.Errorf("register lower_utf8: %w", err)
			}
			return nil
		},
	})
}

// Predicate is a WHERE clause with its bound arguments.
type Predicate struct {
	Clause string
	Args   []any
}

// Rows is the cursor returned by Search. *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// SQLite is a storage collaborator backed by a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath. ":memory:" opens a private
// in-memory database.
func Open(dbPath string) (*SQLite, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.initMeta(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init metadata: %w", err)
	}
	return s, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

func (s *SQLite) initMeta() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ` + metaTable + ` (
    key TEXT PRIMARY KEY,
    value TEXT
)`)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateTable issues CREATE TABLE name (columns...). Each column entry is a full
// definition such as "Name VARCHAR(255)" or a table constraint.
func (s *SQLite) CreateTable(ctx context.Context, name string, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("create table %s: no column definitions", name)
	}
	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		defs = append(defs, strings.TrimSpace(c))
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", name, classify(err))
	}
	return nil
}

// DropTable issues DROP TABLE name. A missing table is an error.
func (s *SQLite) DropTable(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE "+name); err != nil {
		return fmt.Errorf("drop table %s: %w", name, classify(err))
	}
	return nil
}

// TableExists reports whether a table with the given name is defined.
func (s *SQLite) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return false, fmt.Errorf("check table existence: %w", err)
	}
	return count > 0, nil
}

// ReplaceTable drops table to (if present) and renames from to it, in one transaction.
func (s *SQLite) ReplaceTable(ctx context.Context, from, to string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+to); err != nil {
		return fmt.Errorf("drop table %s: %w", to, classify(err))
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", from, to)); err != nil {
		return fmt.Errorf("rename table %s to %s: %w", from, to, classify(err))
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit table swap: %w", err)
	}
	return nil
}

// Insert appends one row. values must be aligned with columns.
func (s *SQLite) Insert(ctx context.Context, table string, columns []string, values []any) error {
	if len(columns) != len(values) {
		return fmt.Errorf("insert into %s: %d columns but %d values", table, len(columns), len(values))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, classify(err))
	}
	return nil
}

// Search selects columns from table, filtered by where (nil means all rows) and ordered
// by sortColumn when it is non-empty. sortColumn is used verbatim.
func (s *SQLite) Search(ctx context.Context, table string, columns []string, where *Predicate, sortColumn string) (Rows, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(columns, ", "), table)

	var args []any
	if where != nil && where.Clause != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where.Clause)
		args = where.Args
	}
	if sortColumn != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(sortColumn)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", table, classify(err))
	}
	return rows, nil
}

// Count returns the number of rows in table.
func (s *SQLite) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, classify(err))
	}
	return n, nil
}

// SetMeta stores a metadata value, replacing any previous one.
func (s *SQLite) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO `+metaTable+`(key, value)
        VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value
    `, key, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// Meta returns a metadata value; ok is false when the key was never set.
func (s *SQLite) Meta(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM `+metaTable+` WHERE key=?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, true, nil
}

// classify maps driver errors onto the package sentinels, keeping the original error
// in the chain.
func classify(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		case strings.Contains(sqliteErr.Error(), "already exists"):
			return fmt.Errorf("%w: %w", ErrTableExists, err)
		case strings.Contains(sqliteErr.Error(), "no such table"):
			return fmt.Errorf("%w: %w", ErrNoSuchTable, err)
		}
	}
	return err
}
