package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/harrison/everything/internal/config"
	"github.com/harrison/everything/internal/models"
	"github.com/spf13/cobra"
)

// NewSearchCommand creates the 'everything search' command
func NewSearchCommand(opts *rootOptions) *cobra.Command {
	var sortColumn string
	var matchCase bool
	var literal bool
	var format string

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search the catalog by file name",
		Long: `List cataloged entries whose name contains the given text.

The text is a regular expression fragment unless --literal is given, so
"a.c" also matches "abc". Matching ignores case unless --match-case is
given. With no text every entry is listed.

Examples:
  everything search report
  everything search '\.go$' --sort Size
  everything search 'C++' --literal --match-case --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) == 1 {
				text = args[0]
			}
			return runSearch(cmd, opts, text, sortColumn, matchCase, literal, format)
		},
	}

	cmd.Flags().StringVar(&sortColumn, "sort", "", "Column to order by (Name|Path|Size|Date; default: config search.default_sort)")
	cmd.Flags().BoolVar(&matchCase, "match-case", false, "Match letter case exactly")
	cmd.Flags().BoolVar(&literal, "literal", false, "Treat the text as plain characters, not a pattern")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *rootOptions, text, sortColumn string, matchCase, literal bool, format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format '%s': format must be 'table' or 'json'", format)
	}

	a, err := openApp(cmd, opts, func(cfg *config.Config) {
		if cmd.Flags().Changed("literal") {
			cfg.Search.Literal = literal
		}
		if cmd.Flags().Changed("match-case") {
			cfg.Search.MatchCase = matchCase
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if sortColumn == "" {
		sortColumn = a.cfg.Search.DefaultSort
	}

	records, err := a.service.Search(cmd.Context(), text, sortColumn, a.cfg.Search.MatchCase)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	output := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(output, records)
	}
	printRecords(output, records)
	return nil
}

func writeJSON(w io.Writer, records []models.FileRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// printRecords writes records as an aligned table followed by a match count.
// Column widths are computed on plain text; the header is colored afterwards so
// escape codes do not count toward the padding.
func printRecords(w io.Writer, records []models.FileRecord) {
	if len(records) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No matching entries")
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	var table bytes.Buffer
	tw := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPATH\tSIZE\tDATE")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.Name, rec.Path, strconv.FormatUint(rec.Size, 10), rec.Date)
	}
	tw.Flush()

	header, body, _ := strings.Cut(table.String(), "\n")
	cyan.Fprintln(w, header)
	io.WriteString(w, body)

	gray.Fprintf(w, "%d entries\n", len(records))
}
