package commands

import (
	"fmt"
	"sort"

	"pfetracker/lib/tracker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusCount struct {
	status tracker.Status
	count  int
}

// the configured labels first, then whatever else operators typed
func sortedCounts(counts map[tracker.Status]int, labels tracker.Labels) []statusCount {
	var out []statusCount
	for _, s := range []tracker.Status{labels.NotDone, labels.Done} {
		out = append(out, statusCount{status: s, count: counts[s]})
		delete(counts, s)
	}

	var others []statusCount
	for s, n := range counts {
		others = append(others, statusCount{status: s, count: n})
	}
	sort.Slice(others, func(i, j int) bool {
		return others[i].status < others[j].status
	})
	return append(out, others...)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints how many tracked entries are in each status.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		store := cfg.SheetStore()

		dataset, exists, err := store.Load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !exists {
			fmt.Fprintf(out, "%s does not exist yet\n", store.Path())
			return nil
		}

		t := newTable(out)
		t.AppendHeader(table.Row{"Status", "Entries"})
		total := 0
		for _, c := range sortedCounts(dataset.CountByStatus(), store.Labels()) {
			label := string(c.status)
			if label == "" {
				label = "(empty)"
			}
			t.AppendRow(table.Row{label, c.count})
			total += c.count
		}
		t.AppendFooter(table.Row{"Total", total})
		render(t, out)
		return nil
	},
}
