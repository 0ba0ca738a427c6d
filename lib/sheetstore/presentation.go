package sheetstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	doneFill    = "C6EFCE"
	notDoneFill = "FFC7CE"
)

var columnWidths = []struct {
	column string
	width  float64
}{
	{"A", 40},
	{"B", 30},
	{"C", 30},
	{"D", 15},
}

var (
	statusRangePattern = regexp.MustCompile(`^D2:D\d+$`)
	rowRangePattern    = regexp.MustCompile(`^A2:D\d+$`)
)

func quoteFormulaString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// clearPresentation drops the dropdown and highlighting left by a previous
// save, they cover a row count that is about to change. Validations and
// formats the operator put on other ranges are kept.
func clearPresentation(f *excelize.File, sheet string) error {
	validations, err := f.GetDataValidations(sheet)
	if err != nil {
		return err
	}
	for _, dv := range validations {
		if !statusRangePattern.MatchString(dv.Sqref) {
			continue
		}
		err = f.DeleteDataValidation(sheet, dv.Sqref)
		if err != nil {
			return err
		}
	}

	formats, err := f.GetConditionalFormats(sheet)
	if err != nil {
		return err
	}
	for rangeRef := range formats {
		if !rowRangePattern.MatchString(rangeRef) {
			continue
		}
		err = f.UnsetConditionalFormat(sheet, rangeRef)
		if err != nil {
			return err
		}
	}
	return nil
}

// applyPresentation adds the status dropdown, the done/not done row
// highlighting and the column widths. None of it touches cell values.
func (s Store) applyPresentation(f *excelize.File, sheet string, rows int) error {
	lastRow := rows + 1 + s.lookaheadRows
	if lastRow < 2 {
		lastRow = 2
	}

	err := clearPresentation(f, sheet)
	if err != nil {
		return err
	}

	dv := excelize.NewDataValidation(true)
	dv.Sqref = fmt.Sprintf("D2:D%d", lastRow)
	err = dv.SetDropList(s.labels.Choices())
	if err != nil {
		return err
	}
	err = f.AddDataValidation(sheet, dv)
	if err != nil {
		return err
	}

	green, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{doneFill}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	red, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{notDoneFill}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	err = f.SetConditionalFormat(sheet, fmt.Sprintf("A2:D%d", lastRow), []excelize.ConditionalFormatOptions{
		{
			Type:     "formula",
			Criteria: "$D2=" + quoteFormulaString(string(s.labels.Done)),
			Format:   &green,
		},
		{
			Type:     "formula",
			Criteria: "$D2=" + quoteFormulaString(string(s.labels.NotDone)),
			Format:   &red,
		},
	})
	if err != nil {
		return err
	}

	for _, c := range columnWidths {
		err = f.SetColWidth(sheet, c.column, c.column, c.width)
		if err != nil {
			return err
		}
	}
	return nil
}
