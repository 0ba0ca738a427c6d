package commands

import (
	"errors"
	"time"

	"pfetracker/lib/journal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "The number of runs to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Prints the most recent runs recorded in the journal.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if !cfg.Journal.Enabled() {
			return errors.New("the journal is disabled, set journal.file or journal.url in the config")
		}

		database, err := cfg.Journal.OpenDB()
		if err != nil {
			return err
		}
		defer database.Close()

		runs, err := journal.NewStore(database).Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		t := newTable(out)
		t.AppendHeader(table.Row{"Started", "Outcome", "Pages", "Fetched", "Appended", "Total", "Took", "Error"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.StartedAt.Local().Format(time.DateTime),
				run.Outcome,
				run.Pages,
				run.Fetched,
				run.Appended,
				run.Total,
				run.Duration().Round(time.Millisecond),
				run.Error,
			})
		}
		render(t, out)
		return nil
	},
}
