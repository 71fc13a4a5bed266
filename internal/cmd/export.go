package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/harrison/everything/internal/filelock"
	"github.com/harrison/everything/internal/models"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the 'everything export' command
func NewExportCommand(opts *rootOptions) *cobra.Command {
	var format string
	var output string
	var compress bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to JSON or CSV format",
		Long: `Export every cataloged entry, ordered by the configured default sort column.

If no output file is specified, data is written to stdout. Output files are
written atomically, so an interrupted export never leaves a partial file.

Examples:
  # Export to JSON file
  everything export --format json --output catalog.json

  # Export zstd-compressed CSV
  everything export --format csv --compress --output catalog.csv.zst

Supported formats:
  - json: JSON array of entries
  - csv: CSV with headers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, format, output, compress)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format (json|csv)")
	cmd.Flags().StringVar(&output, "output", "", "Output file path (stdout if not specified)")
	cmd.Flags().BoolVar(&compress, "compress", false, "Compress the output with zstd")

	return cmd
}

func runExport(cmd *cobra.Command, opts *rootOptions, format, output string, compress bool) error {
	if format != "json" && format != "csv" {
		return fmt.Errorf("invalid format '%s': format must be 'json' or 'csv'", format)
	}

	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.service.Search(cmd.Context(), "", a.cfg.Search.DefaultSort, false)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	write := func(w io.Writer) error {
		return encodeRecords(w, records, format, compress)
	}

	if output == "" {
		return write(cmd.OutOrStdout())
	}
	if err := filelock.AtomicWriteFunc(output, write); err != nil {
		return err
	}
	a.log.LogInfo(fmt.Sprintf("Exported %d entries to %s", len(records), output))
	return nil
}

// encodeRecords writes records in format, through a zstd encoder when compress is set.
func encodeRecords(w io.Writer, records []models.FileRecord, format string, compress bool) error {
	if !compress {
		return encodeFormat(w, records, format)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if err := encodeFormat(enc, records, format); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish zstd stream: %w", err)
	}
	return nil
}

func encodeFormat(w io.Writer, records []models.FileRecord, format string) error {
	switch format {
	case "json":
		return writeJSON(w, records)
	case "csv":
		return exportCSV(w, records)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func exportCSV(w io.Writer, records []models.FileRecord) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Name,
			rec.Path,
			strconv.FormatUint(rec.Size, 10),
			rec.Date,
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
