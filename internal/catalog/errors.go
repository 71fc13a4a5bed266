package catalog

import (
	"fmt"
	"strings"
)

// SchemaError reports that the store rejected a create or drop of a catalog table.
type SchemaError struct {
	Op    string // "create" or "drop"
	Table string
	Err   error
}

// Error implements the error interface for SchemaError.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying store error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// StoreError reports an insert, search or connection failure in the store.
type StoreError struct {
	Op  string // "open", "insert", "search", ...
	Key string // optional record key or query for context
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	var sb strings.Builder
	sb.WriteString("store ")
	sb.WriteString(e.Op)
	if e.Key != "" {
		sb.WriteString(fmt.Sprintf(" %q", e.Key))
	}
	sb.WriteString(fmt.Sprintf(": %v", e.Err))
	return sb.String()
}

// Unwrap returns the underlying store error.
func (e *StoreError) Unwrap() error {
	return e.Err
}
