package report

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/roach88/allocscope/internal/measure"
	"github.com/roach88/allocscope/internal/store"
)

// Column names added by Flatten.
const (
	ColumnRepository = "repository"
	ColumnGroup      = "group"
)

// Tagged is a measurement row with its origin.
type Tagged struct {
	Repository string
	Group      string
	Row        measure.Row
}

// Flatten concatenates every measurement row of every store, tagged with
// its repository and group, sorted by (status, executable) descending:
// successful rows first, failures last. Reserved rows are not included.
func Flatten(stores []Named, group string) []Tagged {
	var out []Tagged
	for _, n := range stores {
		for _, row := range n.Store.Rows() {
			out = append(out, Tagged{Repository: n.Name, Group: group, Row: row})
		}
	}
	Sort(out)
	return out
}

// Sort orders rows successes first, then by executable descending.
// Ties keep their relative order.
func Sort(rows []Tagged) {
	slices.SortStableFunc(rows, func(a, b Tagged) int {
		if a.Row.Status != b.Row.Status {
			if a.Row.Status {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Row.Executable, a.Row.Executable)
	})
}

// Rows strips the origin tags.
func Rows(tagged []Tagged) []measure.Row {
	out := make([]measure.Row, len(tagged))
	for i, t := range tagged {
		out[i] = t.Row
	}
	return out
}

func flattenedHeader(withGroup bool) []string {
	h := append(measure.Header(), ColumnRepository)
	if withGroup {
		h = append(h, ColumnGroup)
	}
	return h
}

// EncodeFlattened writes a flattened table as CSV. The group column is
// written only when at least one row has a group label.
func EncodeFlattened(w io.Writer, rows []Tagged) error {
	withGroup := slices.ContainsFunc(rows, func(t Tagged) bool { return t.Group != "" })

	cw := csv.NewWriter(w)
	if err := cw.Write(flattenedHeader(withGroup)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range rows {
		rec := append(store.MarshalRecord(t.Row), t.Repository)
		if withGroup {
			rec = append(rec, t.Group)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", t.Row.Executable, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ErrFlattenedHeader is returned for a file that is not a flattened report.
var ErrFlattenedHeader = errors.New("header is not a flattened report header")

// DecodeFlattened reads a table written by EncodeFlattened.
func DecodeFlattened(r io.Reader) ([]Tagged, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrFlattenedHeader
	}
	if err != nil {
		return nil, err
	}
	var withGroup bool
	switch {
	case slices.Equal(header, flattenedHeader(false)):
	case slices.Equal(header, flattenedHeader(true)):
		withGroup = true
	default:
		return nil, fmt.Errorf("%w: %v", ErrFlattenedHeader, header)
	}

	out := []Tagged{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != len(header) {
			return nil, fmt.Errorf("line %d: got %d fields, want %d", line, len(rec), len(header))
		}
		row, err := store.UnmarshalRecord(rec[:measure.ColumnCount])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t := Tagged{Repository: rec[measure.ColumnCount], Row: row}
		if withGroup {
			t.Group = rec[measure.ColumnCount+1]
		}
		out = append(out, t)
	}
	return out, nil
}
