package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harrison/everything/internal/models"
	"github.com/spf13/cobra"
)

// NewAddCommand creates the 'everything add' command
func NewAddCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Add entries to the catalog without reindexing",
		Long: `Stat each path and append it to the catalog. The paths do not have to be
inside the configured root.

Paths are inserted in order and the first failure stops the rest; an entry
that is already cataloged fails with a duplicate key error.

Examples:
  everything add ~/Downloads/report.pdf
  everything add notes.txt todo.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, opts, args)
		},
	}

	return cmd
}

func runAdd(cmd *cobra.Command, opts *rootOptions, paths []string) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	records := make([]models.FileRecord, 0, len(paths))
	for _, path := range paths {
		rec, err := a.service.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("invalid entry %s: %w", path, err)
		}
		records = append(records, rec)
	}

	ctx := cmd.Context()
	if len(records) == 1 {
		err = a.service.Insert(ctx, records[0])
	} else {
		err = a.service.InsertAll(ctx, records)
	}
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}

	output := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	for _, rec := range records {
		green.Fprint(output, "Added ")
		fmt.Fprintf(output, "%s in %s\n", rec.String(), rec.Path)
	}
	return nil
}
