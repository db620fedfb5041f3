package store

import (
	"fmt"
	"strconv"

	"github.com/roach88/allocscope/internal/measure"
)

// legacyHeader is the title-case header of result files produced by the
// earlier tabular pipeline. It is accepted on read; writes always use
// measure.Header.
var legacyHeader = []string{
	"Executable", "Stack Allocs", "Stack Inspector Runs", "Heap Allocs", "Heap Frees", "Summary Bytes Allocated",
	"Average Bytes Per Allocation", "Valgrind Runs", "Valgrind Error Summary", "Stack Allocs Fraction",
	"Heap Allocs Fraction", "Executable Size", "Elapsed Time", "Status", "Reason",
}

// checkHeader verifies that a header record matches the schema.
func checkHeader(rec []string) error {
	if equalFields(rec, measure.Header()) || equalFields(rec, legacyHeader) {
		return nil
	}
	if len(rec) != measure.ColumnCount {
		return fmt.Errorf("%w: got %d columns, want %d", ErrHeaderMismatch, len(rec), measure.ColumnCount)
	}
	return fmt.Errorf("%w: got %v", ErrHeaderMismatch, rec)
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MarshalRecord renders a row as one CSV record.
func MarshalRecord(row measure.Row) []string {
	rec := make([]string, 0, measure.ColumnCount)
	rec = append(rec, row.Executable)
	for _, v := range row.Values {
		rec = append(rec, v.String())
	}
	rec = append(rec, strconv.FormatBool(row.Status), string(row.Reason))
	return rec
}

// UnmarshalRecord parses one CSV record. The caller has already checked the
// field count.
func UnmarshalRecord(rec []string) (measure.Row, error) {
	row := measure.Row{Executable: rec[0]}
	if row.Executable == "" {
		return measure.Row{}, fmt.Errorf("empty executable")
	}

	for i := 0; i < measure.NumFields; i++ {
		v, err := measure.ParseValue(rec[1+i])
		if err != nil {
			return measure.Row{}, fmt.Errorf("%s: %w", measure.Field(i), err)
		}
		row.Values[i] = v
	}

	statusCell := rec[1+measure.NumFields]
	status, err := strconv.ParseBool(statusCell)
	if err != nil {
		// Reserved rows are recomputed on every aggregation; files from the
		// earlier pipeline stored a numeric mean in their status cell.
		if !row.Reserved() {
			return measure.Row{}, fmt.Errorf("%s: invalid boolean %q", measure.ColumnStatus, statusCell)
		}
		status = false
	}
	row.Status = status

	reason, err := measure.ParseReason(rec[2+measure.NumFields])
	if err != nil {
		return measure.Row{}, fmt.Errorf("%s: %w", measure.ColumnReason, err)
	}
	row.Reason = reason
	return row, nil
}
