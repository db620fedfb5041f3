package measure

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cell tokens for non-numeric values.
const (
	// MissingToken marks a value that could not be computed (e.g. an
	// aggregate over zero successful rows).
	MissingToken = "NA"

	// ErrorToken marks a measurement cell of a failed inspection.
	ErrorToken = "error"
)

// Kind discriminates the three states of a Value.
type Kind uint8

const (
	// KindMissing is the zero Kind: no value is known.
	KindMissing Kind = iota
	// KindNumber holds a finite float64.
	KindNumber
	// KindError marks a cell that belongs to a failed inspection.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindError:
		return "error"
	default:
		return "missing"
	}
}

// Value is a single numeric cell.
// The zero Value is missing, never 0.
type Value struct {
	kind Kind
	num  float64
}

// Number returns a numeric Value.
// NaN is folded to missing and infinities to the error marker, so a Value
// of KindNumber is always finite.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	if math.IsInf(f, 0) {
		return ErrorMark()
	}
	return Value{kind: KindNumber, num: f}
}

// Missing returns the missing marker.
func Missing() Value { return Value{} }

// ErrorMark returns the error marker.
func ErrorMark() Value { return Value{kind: KindError} }

// Kind reports which state the value is in.
func (v Value) Kind() Kind { return v.kind }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Float returns the number and true, or 0 and false for non-numbers.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// String renders the value as it appears in a flat file.
// Numbers use the shortest decimal that parses back to the same float64.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindError:
		return ErrorToken
	default:
		return MissingToken
	}
}

// ParseValue parses a flat-file cell.
//
// "NA", "NaN" and the empty cell are missing; "error" is the error marker;
// anything else must be a finite decimal number.
func ParseValue(s string) (Value, error) {
	t := strings.TrimSpace(s)
	switch t {
	case "", MissingToken, "NaN", "nan":
		return Missing(), nil
	case ErrorToken:
		return ErrorMark(), nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid numeric cell %q", s)
	}
	if math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("invalid numeric cell %q: not finite", s)
	}
	return Number(f), nil
}

// MarshalJSON encodes numbers as JSON numbers, the missing marker as null
// and the error marker as the string "error".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.String()), nil
	case KindError:
		return []byte(`"` + ErrorToken + `"`), nil
	default:
		return []byte("null"), nil
	}
}
