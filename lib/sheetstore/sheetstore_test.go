package sheetstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pfetracker/lib/tracker"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	return New(Options{
		Path:          filepath.Join(t.TempDir(), "tracking.xlsx"),
		LookaheadRows: DefaultLookaheadRows,
	})
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	dataset, exists, err := store.Load()
	require.NoError(t, err)
	require.False(t, exists)
	require.Empty(t, dataset)
}

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	dataset := tracker.Dataset{
		{Name: "Acme", ProjectSubmitted: "yes", Response: "call back", Status: tracker.StatusDone},
		{Name: "", ProjectSubmitted: "note without a name", Status: ""},
		{Name: "0042", Status: tracker.StatusNotDone},
		{Name: "Globex", Status: "Fait"},
	}
	require.NoError(t, store.Save(dataset))

	loaded, exists, err := store.Load()
	require.NoError(t, err)
	require.True(t, exists)
	diff := cmp.Diff(dataset, loaded)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestSaveWritesHeaderAndPresentation(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(tracker.Dataset{
		{Name: "Foo", Status: tracker.StatusNotDone},
		{Name: "Bar", Status: tracker.StatusNotDone},
	}))

	f, err := excelize.OpenFile(store.Path())
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Name", "Project Submitted", "Response", "Statut"},
		{"Foo", "", "", "NotDone"},
		{"Bar", "", "", "NotDone"},
	}, rows)

	validations, err := f.GetDataValidations(sheet)
	require.NoError(t, err)
	require.Len(t, validations, 1)
	require.Equal(t, "D2:D503", validations[0].Sqref)
	require.Contains(t, validations[0].Formula1, "NotDone,Done")

	formats, err := f.GetConditionalFormats(sheet)
	require.NoError(t, err)
	rules, ok := formats["A2:D503"]
	require.True(t, ok, formats)
	require.Len(t, rules, 2)
	requireHighlight(t, f, rules[0], `$D2="Done"`, doneFill)
	requireHighlight(t, f, rules[1], `$D2="NotDone"`, notDoneFill)

	for col, expected := range map[string]float64{"A": 40, "B": 30, "C": 30, "D": 15} {
		width, err := f.GetColWidth(sheet, col)
		require.NoError(t, err)
		require.Equal(t, expected, width, col)
	}
}

func requireHighlight(t *testing.T, f *excelize.File, rule excelize.ConditionalFormatOptions, criteria, fill string) {
	t.Helper()
	require.Equal(t, "formula", rule.Type)
	require.Equal(t, criteria, rule.Criteria)
	require.NotNil(t, rule.Format)
	style, err := f.GetConditionalStyle(*rule.Format)
	require.NoError(t, err)
	require.Len(t, style.Fill.Color, 1)
	require.True(t, strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), fill), style.Fill.Color)
}

func TestSaveReplacesFileWithoutLeftovers(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(tracker.Dataset{{Name: "Foo", Status: tracker.StatusNotDone}}))
	require.NoError(t, store.Save(tracker.Dataset{{Name: "Bar", Status: tracker.StatusNotDone}}))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	loaded, _, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, tracker.Dataset{{Name: "Bar", Status: tracker.StatusNotDone}}, loaded)
}

func TestLoadUnparsableFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("definitely not a workbook"), 0644))

	_, exists, err := store.Load()
	require.True(t, exists)
	require.True(t, errors.Is(err, ErrUnreadableDataset))

	contents, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Equal(t, "definitely not a workbook", string(contents))
}

func writeWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestLoadRejectsUnexpectedLayout(t *testing.T) {
	testCases := []struct {
		name string
		rows [][]any
	}{
		{
			name: "wrong header",
			rows: [][]any{{"Company", "Notes"}},
		},
		{
			name: "extra header column",
			rows: [][]any{{"Name", "Project Submitted", "Response", "Statut", "Contact"}},
		},
		{
			name: "extra data column",
			rows: [][]any{
				{"Name", "Project Submitted", "Response", "Statut"},
				{"Acme", "", "", "Done", "jane@acme.test"},
			},
		},
	}

	for _, test := range testCases {
		store := newTestStore(t)
		writeWorkbook(t, store.Path(), test.rows)

		_, _, err := store.Load()
		require.ErrorIs(t, err, ErrUnreadableDataset, test.name)
	}
}

func TestLoadShortRows(t *testing.T) {
	store := newTestStore(t)
	writeWorkbook(t, store.Path(), [][]any{
		{"Name", "Project Submitted", "Response", "Statut"},
		{"Acme"},
		{"Globex", "sent"},
	})

	loaded, exists, err := store.Load()
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, tracker.Dataset{
		{Name: "Acme"},
		{Name: "Globex", ProjectSubmitted: "sent"},
	}, loaded)
}

func TestLoadEmptyWorkbook(t *testing.T) {
	store := newTestStore(t)
	writeWorkbook(t, store.Path(), nil)

	loaded, exists, err := store.Load()
	require.NoError(t, err)
	require.True(t, exists)
	require.Empty(t, loaded)
}

func TestCustomLabels(t *testing.T) {
	store := New(Options{
		Path:   filepath.Join(t.TempDir(), "tracking.xlsx"),
		Labels: tracker.Labels{NotDone: "Non fait", Done: "Fait"},
	})
	require.NoError(t, store.Save(tracker.Dataset{{Name: "Acme", Status: "Non fait"}}))

	f, err := excelize.OpenFile(store.Path())
	require.NoError(t, err)
	defer f.Close()

	validations, err := f.GetDataValidations("Sheet1")
	require.NoError(t, err)
	require.Len(t, validations, 1)
	require.Equal(t, "D2:D2", validations[0].Sqref)
	require.Contains(t, validations[0].Formula1, "Non fait,Fait")

	formats, err := f.GetConditionalFormats("Sheet1")
	require.NoError(t, err)
	rules := formats["A2:D2"]
	require.Len(t, rules, 2)
	requireHighlight(t, f, rules[0], `$D2="Fait"`, doneFill)
	requireHighlight(t, f, rules[1], `$D2="Non fait"`, notDoneFill)
}

func TestSaveKeepsOperatorWorkbookIntact(t *testing.T) {
	store := newTestStore(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Project Submitted", "Response", "Statut"}))
	require.NoError(t, f.SetCellStr("Sheet1", "A2", "Acme"))
	require.NoError(t, f.SetCellFormula("Sheet1", "B2", "1+1"))
	require.NoError(t, f.SetCellValue("Sheet1", "C2", time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellStr("Sheet1", "D2", "Done"))
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellStr("Notes", "A1", "call Acme on monday"))
	require.NoError(t, f.SaveAs(store.Path()))
	dateBefore, err := f.GetCellValue("Sheet1", "C2")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	existing, exists, err := store.Load()
	require.NoError(t, err)
	require.True(t, exists)
	result := tracker.Merge(existing, []string{"Acme", "Globex"}, tracker.StatusNotDone)
	require.NoError(t, store.Save(result.Dataset))

	f, err = excelize.OpenFile(store.Path())
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Sheet1", "Notes"}, f.GetSheetList())
	note, err := f.GetCellValue("Notes", "A1")
	require.NoError(t, err)
	require.Equal(t, "call Acme on monday", note)

	formula, err := f.GetCellFormula("Sheet1", "B2")
	require.NoError(t, err)
	require.Equal(t, "1+1", formula)
	dateAfter, err := f.GetCellValue("Sheet1", "C2")
	require.NoError(t, err)
	require.Equal(t, dateBefore, dateAfter)

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Globex", "", "", "NotDone"}, rows[2])
}

func TestSaveRefreshesPresentation(t *testing.T) {
	store := New(Options{Path: filepath.Join(t.TempDir(), "tracking.xlsx")})
	require.NoError(t, store.Save(tracker.Dataset{{Name: "Foo", Status: tracker.StatusNotDone}}))
	require.NoError(t, store.Save(tracker.Dataset{
		{Name: "Foo", Status: tracker.StatusNotDone},
		{Name: "Bar", Status: tracker.StatusNotDone},
	}))

	f, err := excelize.OpenFile(store.Path())
	require.NoError(t, err)
	defer f.Close()

	validations, err := f.GetDataValidations("Sheet1")
	require.NoError(t, err)
	require.Len(t, validations, 1)
	require.Equal(t, "D2:D3", validations[0].Sqref)

	formats, err := f.GetConditionalFormats("Sheet1")
	require.NoError(t, err)
	require.Len(t, formats, 1)
	require.Len(t, formats["A2:D3"], 2)
}

func TestLock(t *testing.T) {
	store := newTestStore(t)

	unlock, err := store.Lock()
	require.NoError(t, err)

	_, err = store.Lock()
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock())

	unlock, err = store.Lock()
	require.NoError(t, err)
	require.NoError(t, unlock())

	// the lock file stays behind, locking never creates the dataset
	_, err = os.Stat(store.Path() + ".lock")
	require.NoError(t, err)
	_, err = os.Stat(store.Path())
	require.True(t, os.IsNotExist(err))
}
