package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"pfetracker/lib/sheetstore"
	"pfetracker/lib/tracker"

	"github.com/stretchr/testify/require"
)

func TestSortedCounts(t *testing.T) {
	counts := map[tracker.Status]int{
		tracker.StatusDone: 2,
		"maybe":            1,
		"":                 4,
	}
	require.Equal(t, []statusCount{
		{status: tracker.StatusNotDone, count: 0},
		{status: tracker.StatusDone, count: 2},
		{status: "", count: 4},
		{status: "maybe", count: 1},
	}, sortedCounts(counts, tracker.DefaultLabels))
}

func TestStatusCommand(t *testing.T) {
	dir := t.TempDir()
	sheet := filepath.Join(dir, "tracking.xlsx")
	config := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf(`{ sheet: { path: %q } }`, sheet)), 0600))

	store := sheetstore.New(sheetstore.Options{Path: sheet})
	require.NoError(t, store.Save(tracker.Dataset{
		{Name: "Acme", Status: tracker.StatusDone},
		{Name: "Globex", Status: tracker.StatusNotDone},
		{Name: "Initech", Status: tracker.StatusNotDone},
	}))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"status", "--config", config})
	require.NoError(t, rootCmd.Execute())

	// not a terminal, so the table comes out as csv
	require.Contains(t, out.String(), "Status,Entries")
	require.Contains(t, out.String(), "NotDone,2")
	require.Contains(t, out.String(), "Done,1")
	require.Contains(t, out.String(), "Total,3")
}
