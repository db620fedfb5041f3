package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/allocscope/internal/aggregate"
	"github.com/roach88/allocscope/internal/catalog"
	"github.com/roach88/allocscope/internal/store"
)

// StoreExt is the file extension of result stores.
const StoreExt = ".csv"

// StoreFiles lists the result stores directly inside dir, sorted by name.
// Entries of skip are file names (or paths) to leave out.
func StoreFiles(dir string, skip []string) ([]string, error) {
	filter := catalog.Filter{Skip: skip}
	files, err := catalog.Discover([]string{dir}, filter, catalog.ExtensionOracle(StoreExt))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// ShadowsStore reports whether a report written to path would be listed by
// StoreFiles(dir) and then fail to load as a store.
func ShadowsStore(dir, path string) bool {
	if !strings.EqualFold(filepath.Ext(path), StoreExt) {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Dir(absPath) == absDir
}

// RepositoryName derives a repository name from a store file name.
func RepositoryName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDir reads every store in dir. Any store that fails to load aborts
// the whole call.
func LoadDir(dir string, skip []string) ([]Named, error) {
	files, err := StoreFiles(dir, skip)
	if err != nil {
		return nil, err
	}
	out := make([]Named, 0, len(files))
	for _, f := range files {
		s, err := store.ReadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, Named{Name: RepositoryName(f), Store: s})
	}
	return out, nil
}

// RecomputeDir recomputes and rewrites every store in dir, then returns
// them in file-name order.
func RecomputeDir(dir string, skip []string) ([]Named, error) {
	files, err := StoreFiles(dir, skip)
	if err != nil {
		return nil, err
	}
	out := make([]Named, 0, len(files))
	for _, f := range files {
		s, err := aggregate.RecomputeFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, Named{Name: RepositoryName(f), Store: s})
	}
	return out, nil
}

// WriteSummaries atomically writes the combined report to path.
func WriteSummaries(path string, summaries []aggregate.Summary) error {
	var buf bytes.Buffer
	if err := EncodeSummaries(&buf, summaries); err != nil {
		return fmt.Errorf("encode combined report: %w", err)
	}
	return store.WriteAtomic(path, buf.Bytes())
}

// WriteFlattened atomically writes the flattened report to path.
func WriteFlattened(path string, rows []Tagged) error {
	var buf bytes.Buffer
	if err := EncodeFlattened(&buf, rows); err != nil {
		return fmt.Errorf("encode flattened report: %w", err)
	}
	return store.WriteAtomic(path, buf.Bytes())
}
