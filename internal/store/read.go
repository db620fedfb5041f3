package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseError reports a structural problem found while loading a store.
type ParseError struct {
	Path string // file path, empty when decoding a stream
	Line int    // 1-based line of the offending record, 0 if unknown
	Err  error
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decode reads a store from CSV.
func Decode(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: fmt.Errorf("%w: empty file", ErrHeaderMismatch)}
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}
	if err := checkHeader(header); err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	s, err := New(nil)
	if err != nil {
		return nil, err
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
			}
			return nil, &ParseError{Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != len(header) {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(rec), len(header))}
		}

		row, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		if row.Reserved() {
			if _, dup := s.reserved[row.Executable]; dup {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %s", ErrDuplicateExecutable, row.Executable)}
			}
			s.reserved[row.Executable] = row
			continue
		}
		if err := s.add(row); err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
	}
	return s, nil
}

// ReadFile loads a store from path.
func ReadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
			return nil, pe
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	return s, nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
