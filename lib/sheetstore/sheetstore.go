package sheetstore

import (
	"errors"
	"fmt"
	"os"

	"pfetracker/lib/tracker"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultPath          = "entreprises_pfe.xlsx"
	DefaultLookaheadRows = 500
)

var Header = []string{"Name", "Project Submitted", "Response", "Statut"}

// ErrUnreadableDataset is returned by Load when a file exists at the
// dataset path but cannot be understood as a tracking sheet. The file is
// left untouched and nothing should be written over it.
var ErrUnreadableDataset = errors.New("existing dataset is unreadable")

// ErrLocked means another run currently holds the dataset.
var ErrLocked = errors.New("dataset is locked by another run")

type Options struct {
	Path   string
	Labels tracker.Labels
	// rows past the data that still get the dropdown and highlighting,
	// so rows an operator types in later are formatted too
	LookaheadRows int
}

type Store struct {
	path          string
	labels        tracker.Labels
	lookaheadRows int
}

func New(opts Options) Store {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Labels.Done == "" || opts.Labels.NotDone == "" {
		opts.Labels = tracker.DefaultLabels
	}
	if opts.LookaheadRows < 0 {
		opts.LookaheadRows = 0
	}
	return Store{
		path:          opts.Path,
		labels:        opts.Labels,
		lookaheadRows: opts.LookaheadRows,
	}
}

func (s Store) Path() string {
	return s.path
}

func (s Store) Labels() tracker.Labels {
	return s.labels
}

// Lock takes an exclusive advisory lock on `<path>.lock`, it fails with
// ErrLocked instead of waiting when another run holds it. The lock file is
// left in place on unlock, removing it would let a run that opened the old
// file and a run that creates a new one both hold "the" lock.
func (s Store) Lock() (unlock func() error, err error) {
	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	return lock.Unlock, nil
}

func unreadable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnreadableDataset, fmt.Sprintf(format, args...))
}

// Load reads the dataset. A missing file is an empty dataset with
// exists == false.
func (s Store) Load() (dataset tracker.Dataset, exists bool, err error) {
	_, err = os.Stat(s.path)
	if os.IsNotExist(err) {
		return tracker.Dataset{}, false, nil
	}
	if err != nil {
		return nil, true, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, true, unreadable("%s: %s", s.path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, true, unreadable("%s: sheet %q: %s", s.path, sheet, err)
	}
	if len(rows) == 0 {
		return tracker.Dataset{}, true, nil
	}

	err = checkHeader(rows[0])
	if err != nil {
		return nil, true, unreadable("%s: %s", s.path, err)
	}

	dataset = make(tracker.Dataset, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := parseRow(row)
		if err != nil {
			return nil, true, unreadable("%s: row %d: %s", s.path, i+2, err)
		}
		dataset = append(dataset, record)
	}
	return dataset, true, nil
}

func checkHeader(row []string) error {
	for i, name := range Header {
		if i >= len(row) || row[i] != name {
			return fmt.Errorf("expected header %q, got %q", Header, row)
		}
	}
	return checkNoExtraCells(row)
}

// anything right of column D would not survive a rewrite
func checkNoExtraCells(row []string) error {
	for i := len(Header); i < len(row); i++ {
		if row[i] != "" {
			col, _ := excelize.ColumnNumberToName(i + 1)
			return fmt.Errorf("unexpected value in column %s", col)
		}
	}
	return nil
}

func parseRow(row []string) (tracker.Record, error) {
	err := checkNoExtraCells(row)
	if err != nil {
		return tracker.Record{}, err
	}
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return tracker.Record{
		Name:             cell(0),
		ProjectSubmitted: cell(1),
		Response:         cell(2),
		Status:           tracker.Status(cell(3)),
	}, nil
}

// Save makes the file at the dataset path hold `dataset`. An existing
// workbook is updated in place: only cells whose value differs are written,
// so formulas, number formats, styles and other sheets survive. The result
// is written to a temporary file and renamed over the target, readers never
// observe a partially written sheet.
func (s Store) Save(dataset tracker.Dataset) error {
	f, sheet, existed, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	current, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return unreadable("%s: sheet %q: %s", s.path, sheet, err)
	}

	expected := make([][]string, 0, len(dataset)+1)
	expected = append(expected, Header)
	for _, r := range dataset {
		expected = append(expected, []string{r.Name, r.ProjectSubmitted, r.Response, string(r.Status)})
	}

	for i, row := range expected {
		var have []string
		if i < len(current) {
			have = current[i]
		}
		for col, value := range row {
			if (col < len(have) && have[col] == value) || (col >= len(have) && value == "") {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return err
			}
			err = f.SetCellStr(sheet, cell, value)
			if err != nil {
				return err
			}
		}
	}
	// bottom up, RemoveRow shifts everything below it
	for row := len(current); row > len(expected); row-- {
		err = f.RemoveRow(sheet, row)
		if err != nil {
			return err
		}
	}

	err = s.applyPresentation(f, sheet, len(dataset))
	if err != nil {
		return fmt.Errorf("format sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	err = atomic.WriteFile(s.path, buf)
	if err != nil {
		return err
	}
	if !existed {
		return os.Chmod(s.path, 0644)
	}
	return nil
}

// open returns the workbook at the dataset path, or a new one when there
// is none, along with the sheet holding the dataset.
func (s Store) open() (f *excelize.File, sheet string, existed bool, err error) {
	_, err = os.Stat(s.path)
	if os.IsNotExist(err) {
		f = excelize.NewFile()
		return f, f.GetSheetName(0), false, nil
	}
	if err != nil {
		return nil, "", true, err
	}
	f, err = excelize.OpenFile(s.path)
	if err != nil {
		return nil, "", true, unreadable("%s: %s", s.path, err)
	}
	return f, f.GetSheetName(f.GetActiveSheetIndex()), true, nil
}
