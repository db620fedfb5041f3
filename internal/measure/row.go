package measure

import (
	"fmt"
)

// Field identifies one numeric column of a Row.
// The first ToolFieldCount fields are reported by the instrumentation tool,
// in the order the tool prints them.
type Field int

const (
	StackAllocs Field = iota
	StackInspectorRuns
	HeapAllocs
	HeapFrees
	BytesAllocated
	AvgBytesPerAlloc
	ValgrindRuns
	ValgrindErrorSummary
	StackAllocsFraction
	HeapAllocsFraction
	ExecutableSize
	ElapsedTime

	// NumFields is the number of numeric columns.
	NumFields = int(ElapsedTime) + 1
)

// ToolFieldCount is the number of comma-separated fields a well-formed
// instrumentation record carries.
const ToolFieldCount = int(HeapAllocsFraction) + 1

// Non-numeric column names.
const (
	ColumnExecutable = "executable"
	ColumnStatus     = "status"
	ColumnReason     = "reason"
)

var fieldNames = [NumFields]string{
	StackAllocs:          "stack_allocs",
	StackInspectorRuns:   "stack_inspector_runs",
	HeapAllocs:           "heap_allocs",
	HeapFrees:            "heap_frees",
	BytesAllocated:       "bytes_allocated",
	AvgBytesPerAlloc:     "avg_bytes_per_alloc",
	ValgrindRuns:         "valgrind_runs",
	ValgrindErrorSummary: "valgrind_error_summary",
	StackAllocsFraction:  "stack_allocs_fraction",
	HeapAllocsFraction:   "heap_allocs_fraction",
	ExecutableSize:       "executable_size",
	ElapsedTime:          "elapsed_time",
}

// String returns the column name of the field.
func (f Field) String() string {
	if f < 0 || int(f) >= NumFields {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// IsFraction reports whether the field is a ratio constrained to [0,1].
func (f Field) IsFraction() bool {
	return f == StackAllocsFraction || f == HeapAllocsFraction
}

// IsToolField reports whether the field is produced by the instrumentation tool.
func (f Field) IsToolField() bool {
	return f >= 0 && int(f) < ToolFieldCount
}

// ParseField maps a column name to its Field.
func ParseField(name string) (Field, error) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown numeric column %q", name)
}

// Header returns the 15 column names of a result store, in file order.
func Header() []string {
	h := make([]string, 0, ColumnCount)
	h = append(h, ColumnExecutable)
	h = append(h, fieldNames[:]...)
	h = append(h, ColumnStatus, ColumnReason)
	return h
}

// ColumnCount is the number of columns in a result store record.
const ColumnCount = NumFields + 3

// Row is one record of a result store.
type Row struct {
	// Executable is the primary key within a store.
	Executable string

	// Values holds the numeric columns indexed by Field.
	Values [NumFields]Value

	// Status is true iff the inspection produced a trustworthy measurement.
	Status bool

	// Reason explains a failed inspection. Empty when Status is true.
	Reason Reason
}

// Get returns the value of field f.
func (r Row) Get(f Field) Value {
	return r.Values[f]
}

// With returns a copy of r with field f set to v.
func (r Row) With(f Field, v Value) Row {
	r.Values[f] = v
	return r
}

// Reserved reports whether the row is one of the synthetic AVERAGE/SUM rows.
func (r Row) Reserved() bool {
	return IsReserved(r.Executable)
}

// Succeeded builds a successful row from the tool's measurement fields.
func Succeeded(executable string, metrics [ToolFieldCount]Value, size, elapsed Value) Row {
	r := Row{Executable: executable, Status: true}
	copy(r.Values[:ToolFieldCount], metrics[:])
	r.Values[ExecutableSize] = size
	r.Values[ElapsedTime] = elapsed
	return r
}

// Failed builds a failed row: every tool field carries the error marker.
func Failed(executable string, reason Reason, size, elapsed Value) Row {
	r := Row{Executable: executable, Status: false, Reason: reason}
	for i := 0; i < ToolFieldCount; i++ {
		r.Values[i] = ErrorMark()
	}
	r.Values[ExecutableSize] = size
	r.Values[ElapsedTime] = elapsed
	return r
}

// Validate checks the status/reason invariants of a non-reserved row.
//
// A successful row has every tool field as a finite, non-negative number
// and both fractions in [0,1]. A failed row has a known Reason.
// Reserved rows are derived values and are not checked here.
func (r Row) Validate() error {
	if r.Executable == "" {
		return fmt.Errorf("row has empty executable")
	}
	if r.Reserved() {
		return nil
	}
	if !r.Status {
		if r.Reason == ReasonNone {
			return fmt.Errorf("%s: failed row has no reason", r.Executable)
		}
		if !r.Reason.Valid() {
			return fmt.Errorf("%s: unknown reason %q", r.Executable, r.Reason)
		}
		return nil
	}
	if r.Reason != ReasonNone {
		return fmt.Errorf("%s: successful row carries reason %q", r.Executable, r.Reason)
	}
	for i := 0; i < ToolFieldCount; i++ {
		f := Field(i)
		v, ok := r.Values[f].Float()
		if !ok {
			return fmt.Errorf("%s: %s is %s", r.Executable, f, r.Values[f].Kind())
		}
		if v < 0 {
			return fmt.Errorf("%s: %s is negative (%v)", r.Executable, f, v)
		}
		if f.IsFraction() && v > 1 {
			return fmt.Errorf("%s: %s out of range [0,1] (%v)", r.Executable, f, v)
		}
	}
	return nil
}
