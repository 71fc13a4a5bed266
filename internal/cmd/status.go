package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the 'everything status' command
func NewStatusCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog size and the last reindex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}

	return cmd
}

func runStatus(cmd *cobra.Command, opts *rootOptions) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.service.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	output := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)

	cyan.Fprintln(output, "Catalog Status")
	if !status.Initialized {
		yellow.Fprintln(output, "Catalog not initialized; run 'everything reindex'")
		return nil
	}

	fmt.Fprintf(output, "  Entries:      %d\n", status.Records)
	if status.LastRunID == "" {
		fmt.Fprintln(output, "  Last reindex: never")
		return nil
	}
	fmt.Fprintf(output, "  Last reindex: %s\n", status.LastReindex)
	fmt.Fprintf(output, "  Root:         %s\n", status.LastRoot)
	fmt.Fprintf(output, "  Indexed:      %s\n", status.LastCount)
	fmt.Fprintf(output, "  Run ID:       %s\n", status.LastRunID)
	return nil
}
