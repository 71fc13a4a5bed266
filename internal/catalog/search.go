package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/harrison/everything/internal/models"
	"github.com/harrison/everything/internal/store"
)

// Logger is the logging surface the catalog needs. *logger.ConsoleLogger satisfies it.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogInfo(string)  {}
func (nopLogger) LogWarn(string)  {}

// SearchEngine turns a query into a store predicate and store rows into records.
type SearchEngine struct {
	store Store
	table string
	log   Logger

	// Literal escapes regular-expression metacharacters in the query text. Off by
	// default: the text is used as a pattern fragment.
	Literal bool
}

// NewSearchEngine returns an engine searching the catalog table on s.
func NewSearchEngine(s Store, log Logger) *SearchEngine {
	if log == nil {
		log = nopLogger{}
	}
	return &SearchEngine{store: s, table: TableName, log: log}
}

// BuildPredicate returns the filter for text, or nil when text is empty (match all).
//
// Without matchCase the lowercased name must contain the lowercased text; with it the
// name must contain the text as given. The text is embedded in an unanchored ".*text.*"
// pattern and bound as a parameter.
func (se *SearchEngine) BuildPredicate(text string, matchCase bool) *store.Predicate {
	if text == "" {
		return nil
	}
	if se.Literal {
		text = regexp.QuoteMeta(text)
	}
	if !matchCase {
		return &store.Predicate{
			Clause: "lower_utf8(" + models.ColumnName + ") REGEXP ?",
			Args:   []any{".*" + strings.ToLower(text) + ".*"},
		}
	}
	return &store.Predicate{
		Clause: models.ColumnName + " REGEXP ?",
		Args:   []any{".*" + text + ".*"},
	}
}

// Search runs the query and returns matching records in store order, ascending by
// sortColumn when one is given. sortColumn is not validated.
func (se *SearchEngine) Search(ctx context.Context, text, sortColumn string, matchCase bool) ([]models.FileRecord, error) {
	where := se.BuildPredicate(text, matchCase)

	rows, err := se.store.Search(ctx, se.table, models.Columns, where, sortColumn)
	if err != nil {
		return nil, &StoreError{Op: "search", Key: text, Err: err}
	}
	defer rows.Close()

	records, skipped, err := se.MapRows(rows)
	if err != nil {
		return nil, &StoreError{Op: "search", Key: text, Err: err}
	}
	for _, s := range skipped {
		se.log.LogWarn(fmt.Sprintf("Skipping malformed catalog row: %v", s))
	}
	return records, nil
}

// MapRows drains rows into records. A row that cannot be read is reported in skipped
// and does not stop the drain; err is only set when the cursor itself fails.
func (se *SearchEngine) MapRows(rows store.Rows) (records []models.FileRecord, skipped []error, err error) {
	records = make([]models.FileRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, skipped, err
	}
	return records, skipped, nil
}

func scanRecord(rows store.Rows) (models.FileRecord, error) {
	var (
		rec  models.FileRecord
		date any
	)
	if err := rows.Scan(&rec.Name, &rec.Path, &rec.Size, &date); err != nil {
		return models.FileRecord{}, fmt.Errorf("read row: %w", err)
	}

	// The driver hands TIMESTAMP columns back as time.Time (zero when unparsable).
	switch v := date.(type) {
	case time.Time:
		if v.IsZero() {
			return models.FileRecord{}, fmt.Errorf("row %s/%s: unreadable date", rec.Path, rec.Name)
		}
		rec.Date = v.Format(models.DateLayout)
	case string:
		rec.Date = v
	case []byte:
		rec.Date = string(v)
	default:
		return models.FileRecord{}, fmt.Errorf("row %s/%s: unexpected date value %v", rec.Path, rec.Name, date)
	}
	return rec, nil
}
