package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/allocscope/internal/measure"
)

// Encode writes s as CSV: header, measurement rows in order, then AVERAGE
// and SUM when present.
func Encode(w io.Writer, s *Store) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(measure.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range s.rows {
		if err := cw.Write(MarshalRecord(row)); err != nil {
			return fmt.Errorf("write row %s: %w", row.Executable, err)
		}
	}
	for _, key := range []string{measure.KeyAverage, measure.KeySum} {
		row, ok := s.reserved[key]
		if !ok {
			continue
		}
		if err := cw.Write(MarshalRecord(row)); err != nil {
			return fmt.Errorf("write %s row: %w", key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Bytes returns the encoded form of s.
func Bytes(s *Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile atomically replaces path with the encoded store.
func WriteFile(path string, s *Store) error {
	data, err := Bytes(s)
	if err != nil {
		return err
	}
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to a temporary file next to path and renames it
// into place. Readers observe either the old or the new content.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
