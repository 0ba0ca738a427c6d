package tracker

import "fmt"

// Status is the operator-owned completion flag. Sheets are hand edited, so
// a Status read back from disk may hold any string, not only the labels.
type Status string

const (
	StatusNotDone Status = "NotDone"
	StatusDone    Status = "Done"
)

// Labels are the two values the Status column is restricted to.
type Labels struct {
	NotDone Status `json:"not_done"`
	Done    Status `json:"done"`
}

var DefaultLabels = Labels{
	NotDone: StatusNotDone,
	Done:    StatusDone,
}

// Validate accepts a fully set pair of distinct labels, or an entirely
// unset one. Setting only one would pair it with a default label the
// existing rows do not use.
func (l Labels) Validate() error {
	if l.NotDone == "" && l.Done == "" {
		return nil
	}
	if l.NotDone == "" || l.Done == "" {
		return fmt.Errorf("status labels must be set together, got not_done=%q done=%q", l.NotDone, l.Done)
	}
	if l.NotDone == l.Done {
		return fmt.Errorf("status labels must differ, both are %q", l.Done)
	}
	return nil
}

// Choices lists the labels in the order they are offered in the sheet.
func (l Labels) Choices() []string {
	return []string{string(l.NotDone), string(l.Done)}
}

type Record struct {
	Name             string
	ProjectSubmitted string
	Response         string
	Status           Status
}

// NewRecord is a freshly discovered entry with empty tracking fields.
func NewRecord(name string, status Status) Record {
	return Record{
		Name:   name,
		Status: status,
	}
}

// Dataset is ordered and keyed by Record.Name. Rows an operator left
// without a name are kept in place but are never matched against.
type Dataset []Record

func (d Dataset) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(d))
	for _, r := range d {
		if r.Name == "" {
			continue
		}
		names[r.Name] = struct{}{}
	}
	return names
}

func (d Dataset) CountByStatus() map[Status]int {
	counts := map[Status]int{}
	for _, r := range d {
		if r.Name == "" {
			continue
		}
		counts[r.Status]++
	}
	return counts
}
