// Package catalog owns the file catalog: its table definition, the search predicate
// builder and the Service that ties scanning, storage and search together.
package catalog

import (
	"context"

	"github.com/harrison/everything/internal/store"
)

// TableName is the catalog table.
const TableName = "file"

// columnDefinitions is the physical layout of the catalog table.
var columnDefinitions = []string{
	"Name VARCHAR(255)",
	"Path VARCHAR(255)",
	"Size UNSIGNED INT(6)",
	"Date TIMESTAMP",
	"PRIMARY KEY (Path, Name)",
}

// Store is the storage collaborator the catalog runs on. *store.SQLite implements it.
type Store interface {
	CreateTable(ctx context.Context, name string, columns []string) error
	DropTable(ctx context.Context, name string) error
	TableExists(ctx context.Context, name string) (bool, error)
	ReplaceTable(ctx context.Context, from, to string) error
	Insert(ctx context.Context, table string, columns []string, values []any) error
	Search(ctx context.Context, table string, columns []string, where *store.Predicate, sortColumn string) (store.Rows, error)
	Count(ctx context.Context, table string) (int64, error)
	SetMeta(ctx context.Context, key, value string) error
	Meta(ctx context.Context, key string) (string, bool, error)
	Close() error
}

// Schema issues create and drop requests for one catalog table.
type Schema struct {
	store Store
	table string
}

// NewSchema returns the schema for the catalog table on s.
func NewSchema(s Store) *Schema {
	return &Schema{store: s, table: TableName}
}

// WithTable returns a schema with the same layout under another table name.
func (sc *Schema) WithTable(table string) *Schema {
	return &Schema{store: sc.store, table: table}
}

// Table returns the table this schema manages.
func (sc *Schema) Table() string {
	return sc.table
}

// Create defines the table. It fails if the table already exists.
func (sc *Schema) Create(ctx context.Context) error {
	if err := sc.store.CreateTable(ctx, sc.table, columnDefinitions); err != nil {
		return &SchemaError{Op: "create", Table: sc.table, Err: err}
	}
	return nil
}

// Drop removes the table. Dropping a missing table is an error.
func (sc *Schema) Drop(ctx context.Context) error {
	if err := sc.store.DropTable(ctx, sc.table); err != nil {
		return &SchemaError{Op: "drop", Table: sc.table, Err: err}
	}
	return nil
}

// Exists reports whether the table is currently defined.
func (sc *Schema) Exists(ctx context.Context) (bool, error) {
	ok, err := sc.store.TableExists(ctx, sc.table)
	if err != nil {
		return false, &SchemaError{Op: "exists", Table: sc.table, Err: err}
	}
	return ok, nil
}
