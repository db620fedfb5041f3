package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Discover enumerates executables under roots.
//
// A file is included iff it is not on the skip list, its name passes the
// accept/ignore rules, and the oracle classifies it as executable. With
// Recursive set, subdirectories are entered unless their name matches an
// ignore substring or their path is skipped. Symlinked directories are not
// followed; symlinked files are classified by their target.
//
// A path reachable from several roots is returned once. Unreadable roots
// and directories are fatal.
func Discover(roots []string, filter Filter, oracle Oracle) ([]string, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	if oracle == nil {
		return nil, fmt.Errorf("discover: nil oracle")
	}

	d := &discoverer{filter: filter, oracle: oracle, seen: make(map[string]bool)}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("discover root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("discover root %s: not a directory", root)
		}
		if err := d.walk(filepath.Clean(root)); err != nil {
			return nil, err
		}
	}

	// Never return nil so callers can range and encode uniformly.
	if d.paths == nil {
		d.paths = []string{}
	}
	return d.paths, nil
}

type discoverer struct {
	filter Filter
	oracle Oracle
	seen   map[string]bool
	paths  []string
}

func (d *discoverer) walk(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if d.filter.Skips(path) {
			continue
		}

		if entry.IsDir() {
			if d.filter.EntersDir(entry.Name()) {
				if err := d.walk(path); err != nil {
					return err
				}
			}
			continue
		}

		if !d.filter.AcceptsName(entry.Name()) {
			continue
		}

		info, err := d.stat(path, entry)
		if err != nil {
			return err
		}
		if info == nil || info.IsDir() {
			continue
		}

		ok, err := d.oracle.IsExecutable(path, info)
		if err != nil {
			return fmt.Errorf("classify %s: %w", path, err)
		}
		if ok && !d.seen[path] {
			d.seen[path] = true
			d.paths = append(d.paths, path)
		}
	}
	return nil
}

// stat resolves an entry to file info, following symlinks.
// Dangling symlinks yield nil info and no error.
func (d *discoverer) stat(path string, entry fs.DirEntry) (fs.FileInfo, error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		return info, nil
	}
	info, err := entry.Info()
	if err != nil {
		if os.IsNotExist(err) {
			// Removed between listing and stat.
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}
