package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the canonical catalog timestamp format (yyyy-MM-dd HH:mm:ss).
const DateLayout = "2006-01-02 15:04:05"

// Catalog column names, in insertion order.
const (
	ColumnName = "Name"
	ColumnPath = "Path"
	ColumnSize = "Size"
	ColumnDate = "Date"
)

// Columns lists the catalog columns in the order Values() returns them.
var Columns = []string{ColumnName, ColumnPath, ColumnSize, ColumnDate}

// FileRecord is one catalog row: a filesystem entry and the directory containing it.
// Records are values and are never modified after construction.
type FileRecord struct {
	Name string `json:"name"`
	Path string `json:"path"` // containing directory, absolute
	Size uint64 `json:"size"`
	Date string `json:"date"` // creation time in DateLayout, local time
}

// NewFileRecord builds a record, rendering created in local time with DateLayout.
func NewFileRecord(name, dir string, size uint64, created time.Time) FileRecord {
	return FileRecord{
		Name: name,
		Path: dir,
		Size: size,
		Date: created.Local().Format(DateLayout),
	}
}

// Values returns the record's values aligned with Columns.
func (r FileRecord) Values() []any {
	return []any{r.Name, r.Path, r.Size, r.Date}
}

// Validate checks the structural invariants of a record before it is stored.
func (r FileRecord) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("record name is empty")
	}
	if strings.ContainsRune(r.Name, '/') || strings.ContainsRune(r.Name, filepath.Separator) {
		return fmt.Errorf("record name %q contains a path separator", r.Name)
	}
	if r.Path == "" {
		return fmt.Errorf("record %q has no containing path", r.Name)
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("record %q has invalid date %q: %w", r.Name, r.Date, err)
	}
	return nil
}

// String renders the record for log output.
func (r FileRecord) String() string {
	return fmt.Sprintf("%s (%d bytes, %s)", r.Name, r.Size, r.Date)
}
