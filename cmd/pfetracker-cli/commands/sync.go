package commands

import (
	"fmt"

	"pfetracker/lib/serviceutil"
	"pfetracker/services/harvest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var dryRun bool

func init() {
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be appended without writing the sheet.")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [--dry-run]",
	Short: "Fetches every posting and appends the new ones to the tracking sheet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		ctx, cancel := serviceutil.SignalContext()
		defer cancel()

		service, cleanup, err := harvest.Build(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result, runErr := service.Run(ctx, dryRun)

		out := cmd.OutOrStdout()
		if len(result.Report.Appended) > 0 {
			t := newTable(out)
			t.AppendHeader(table.Row{"#", "Name"})
			for i, r := range result.Report.Appended {
				t.AppendRow(table.Row{result.Report.Existing + i + 1, r.Name})
			}
			render(t, out)
		}
		for _, hint := range result.Report.Hints {
			fmt.Fprintf(out, "possible duplicate: %q looks like %q (%.2f)\n", hint.Name, hint.Existing, hint.Similarity)
		}

		switch {
		case result.Report.UpToDate():
			fmt.Fprintf(out, "%s is up to date (%d records)\n", cfg.Sheet.Path, result.Report.Total)
		case dryRun:
			fmt.Fprintf(out, "dry run: %d records would be appended to %s\n", len(result.Report.Appended), cfg.Sheet.Path)
		case result.Report.Written:
			fmt.Fprintf(out, "appended %d records to %s (%d total)\n", len(result.Report.Appended), cfg.Sheet.Path, result.Report.Total)
		}

		return runErr
	},
}
