package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/allocscope/internal/measure"
)

// Structural errors. Wrapped in ParseError when raised while loading a file.
var (
	ErrHeaderMismatch      = errors.New("header does not match the result schema")
	ErrFieldCount          = errors.New("record field count does not match header")
	ErrDuplicateExecutable = errors.New("duplicate executable")
	ErrReservedKey         = errors.New("reserved key used for a measurement row")
	ErrNotReserved         = errors.New("row is not a reserved row")
)

// Store is the full tabular result for one repository.
// A Store is never modified after construction; the With* methods return
// new values.
type Store struct {
	rows     []measure.Row
	index    map[string]int
	reserved map[string]measure.Row

	// canonical maps the NFC form of each key to the first key seen with it.
	canonical  map[string]string
	equivalent []EquivalentPair
}

// EquivalentPair names two distinct executables whose keys differ only in
// Unicode normalization.
type EquivalentPair struct {
	First  string
	Second string
}

// New builds a store from measurement rows, in order.
// Rows must be valid, non-reserved and have distinct executable keys.
// Keys are compared byte for byte.
func New(rows []measure.Row) (*Store, error) {
	s := &Store{
		rows:      make([]measure.Row, 0, len(rows)),
		index:     make(map[string]int, len(rows)),
		reserved:  map[string]measure.Row{},
		canonical: make(map[string]string, len(rows)),
	}
	for _, row := range rows {
		if err := s.add(row); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) add(row measure.Row) error {
	if row.Reserved() {
		return fmt.Errorf("%w: %s", ErrReservedKey, row.Executable)
	}
	if err := row.Validate(); err != nil {
		return err
	}
	key := row.Executable
	if _, dup := s.index[key]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateExecutable, row.Executable)
	}
	canon := measure.CanonicalKey(key)
	if first, ok := s.canonical[canon]; ok {
		s.equivalent = append(s.equivalent, EquivalentPair{First: first, Second: key})
	} else {
		s.canonical[canon] = key
	}
	s.index[key] = len(s.rows)
	s.rows = append(s.rows, row)
	return nil
}

// Len returns the number of measurement rows (reserved rows excluded).
func (s *Store) Len() int {
	return len(s.rows)
}

// Rows returns a copy of the measurement rows in store order.
func (s *Store) Rows() []measure.Row {
	out := make([]measure.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Successes returns the rows with Status=true.
func (s *Store) Successes() []measure.Row {
	var out []measure.Row
	for _, r := range s.rows {
		if r.Status {
			out = append(out, r)
		}
	}
	return out
}

// Failures returns the number of rows with Status=false.
func (s *Store) Failures() int {
	return len(s.rows) - len(s.Successes())
}

// Row looks up a measurement row by executable key.
func (s *Store) Row(executable string) (measure.Row, bool) {
	i, ok := s.index[executable]
	if !ok {
		return measure.Row{}, false
	}
	return s.rows[i], true
}

// Equivalents returns the pairs of executables whose keys are equal after
// NFC normalization, in the order the second key was added.
func (s *Store) Equivalents() []EquivalentPair {
	return slices.Clone(s.equivalent)
}

// Reserved returns the reserved row stored under key.
func (s *Store) Reserved(key string) (measure.Row, bool) {
	r, ok := s.reserved[key]
	return r, ok
}

// Aggregated reports whether both reserved rows are present.
func (s *Store) Aggregated() bool {
	_, avg := s.reserved[measure.KeyAverage]
	_, sum := s.reserved[measure.KeySum]
	return avg && sum
}

// WithReserved returns a copy of s with the reserved row appended or
// overwritten. The row's Executable selects the key.
func (s *Store) WithReserved(row measure.Row) (*Store, error) {
	if !row.Reserved() {
		return nil, fmt.Errorf("%w: %s", ErrNotReserved, row.Executable)
	}
	out := s.shallowCopy()
	out.reserved[row.Executable] = row
	return out, nil
}

// WithoutReserved returns a copy of s with both reserved rows removed.
func (s *Store) WithoutReserved() *Store {
	out := s.shallowCopy()
	out.reserved = map[string]measure.Row{}
	return out
}

// shallowCopy shares the immutable row slice and index but not the
// reserved map.
func (s *Store) shallowCopy() *Store {
	reserved := make(map[string]measure.Row, len(s.reserved))
	for k, v := range s.reserved {
		reserved[k] = v
	}
	return &Store{rows: s.rows, index: s.index, reserved: reserved, canonical: s.canonical, equivalent: s.equivalent}
}
