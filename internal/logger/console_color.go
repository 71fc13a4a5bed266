package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/everything/internal/catalog"
)

// colorScheme defines consistent colors for reindex metrics.
// Green: indexed entries
// Yellow: skipped entries
// Cyan: labels and identifiers
type colorScheme struct {
	success *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// formatReindexMetrics renders "indexed: N, skipped: N, run: <id>" without colors.
func formatReindexMetrics(result *catalog.ReindexResult) string {
	parts := []string{
		fmt.Sprintf("indexed: %d", result.Indexed),
		fmt.Sprintf("skipped: %d", len(result.Skipped)),
	}
	if result.RunID != "" {
		parts = append(parts, fmt.Sprintf("run: %s", shortRunID(result.RunID)))
	}
	return strings.Join(parts, ", ")
}

// formatColorizedReindexMetrics renders the same metrics as formatReindexMetrics with
// the indexed count in green and a non-zero skipped count in yellow.
func formatColorizedReindexMetrics(result *catalog.ReindexResult) string {
	scheme := newColorScheme()

	parts := []string{
		fmt.Sprintf("%s: %s", scheme.success.Sprint("indexed"), scheme.value.Sprintf("%d", result.Indexed)),
	}

	skipped := len(result.Skipped)
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.warn.Sprint("skipped"), scheme.warn.Sprintf("%d", skipped)))
	} else {
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.label.Sprint("skipped"), scheme.value.Sprint("0")))
	}

	if result.RunID != "" {
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.label.Sprint("run"), scheme.value.Sprint(shortRunID(result.RunID))))
	}
	return strings.Join(parts, ", ")
}

// shortRunID keeps the first UUID group, which is enough to correlate log lines.
func shortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
