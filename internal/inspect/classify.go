package inspect

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/allocscope/internal/measure"
)

// ErrMalformedOutput is returned by ParseToolOutput when stdout is not a
// single well-formed record.
var ErrMalformedOutput = errors.New("malformed tool output")

// Outcome is the classified result of one tool invocation.
type Outcome struct {
	Metrics [measure.ToolFieldCount]measure.Value
	Reason  measure.Reason

	// Detail describes why the output was rejected, when it was.
	Detail string
}

// OK reports whether the invocation produced a trustworthy measurement.
func (o Outcome) OK() bool {
	return o.Reason == measure.ReasonNone
}

// Classify maps an exit code and captured stdout to an Outcome.
//
// Every non-zero exit code maps to exactly one taxonomy value. Exit code 0
// is a success only if stdout parses as one valid record; otherwise it is
// MALFORMED_OUTPUT.
func Classify(exitCode int, stdout []byte) Outcome {
	if exitCode != measure.ExitOK {
		return Outcome{Reason: measure.ReasonForExit(exitCode)}
	}
	metrics, err := ParseToolOutput(stdout)
	if err != nil {
		return Outcome{Reason: measure.ReasonMalformedOutput, Detail: err.Error()}
	}
	return Outcome{Metrics: metrics}
}

// ParseToolOutput decodes the tool's stdout into measurement fields.
//
// The output must contain exactly one CSV record with ToolFieldCount
// fields, each a finite non-negative number, and both fractions in [0,1].
// Blank lines are ignored.
func ParseToolOutput(stdout []byte) ([measure.ToolFieldCount]measure.Value, error) {
	var metrics [measure.ToolFieldCount]measure.Value

	r := csv.NewReader(bytes.NewReader(stdout))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return metrics, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		records = append(records, rec)
	}

	if len(records) != 1 {
		return metrics, fmt.Errorf("%w: expected 1 record, got %d", ErrMalformedOutput, len(records))
	}
	rec := records[0]
	if len(rec) != measure.ToolFieldCount {
		return metrics, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedOutput, measure.ToolFieldCount, len(rec))
	}

	for i, cell := range rec {
		f := measure.Field(i)
		v, err := measure.ParseValue(cell)
		if err != nil {
			return metrics, fmt.Errorf("%w: %s: %v", ErrMalformedOutput, f, err)
		}
		n, ok := v.Float()
		if !ok {
			return metrics, fmt.Errorf("%w: %s: %q is not a number", ErrMalformedOutput, f, strings.TrimSpace(cell))
		}
		if n < 0 {
			return metrics, fmt.Errorf("%w: %s: negative value %v", ErrMalformedOutput, f, n)
		}
		if f.IsFraction() && n > 1 {
			return metrics, fmt.Errorf("%w: %s: %v outside [0,1]", ErrMalformedOutput, f, n)
		}
		metrics[i] = v
	}
	return metrics, nil
}
