package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harrison/everything/internal/config"
	"github.com/harrison/everything/internal/indexer"
	"github.com/spf13/cobra"
)

// NewReindexCommand creates the 'everything reindex' command
func NewReindexCommand(opts *rootOptions) *cobra.Command {
	var root string
	var shadow bool

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the catalog from the root directory",
		Long: `Drop the catalog table, recreate it, and insert one row per entry found
directly inside the root directory. Subdirectories are cataloged as entries
but not descended into.

Entries that cannot be stat'ed are skipped and reported. If the root itself
cannot be read the command fails and the catalog is left empty, unless
--shadow is given, in which case the previous catalog is kept.

Examples:
  everything reindex
  everything reindex --root /srv/share --shadow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(cmd, opts, root, shadow)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Directory to catalog (default: config root)")
	cmd.Flags().BoolVar(&shadow, "shadow", false, "Build into a staging table and swap it in on success")

	return cmd
}

func runReindex(cmd *cobra.Command, opts *rootOptions, root string, shadow bool) error {
	a, err := openApp(cmd, opts, func(cfg *config.Config) {
		if cmd.Flags().Changed("root") {
			cfg.MergeWithFlags(&root, nil, nil, nil)
		}
		if cmd.Flags().Changed("shadow") {
			cfg.Reindex.Shadow = shadow
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Reindex(cmd.Context())
	if err != nil {
		var scanErr *indexer.ScanError
		if errors.As(err, &scanErr) {
			a.log.LogError(fmt.Sprintf("Cannot read root %s", scanErr.Root))
		}
		return fmt.Errorf("reindex failed: %w", err)
	}
	a.log.LogReindexComplete(result)

	output := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Fprintf(output, "Indexed %d entries", result.Indexed)
	fmt.Fprintf(output, " from %s\n", result.Root)
	if len(result.Skipped) > 0 {
		yellow.Fprintf(output, "Skipped %d entries:\n", len(result.Skipped))
		for _, skipped := range result.Skipped {
			fmt.Fprintf(output, "  %s\n", skipped.Error())
		}
	}
	return nil
}
