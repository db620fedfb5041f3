package catalog

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Oracle decides whether a regular file is an executable worth inspecting.
type Oracle interface {
	IsExecutable(path string, info fs.FileInfo) (bool, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(path string, info fs.FileInfo) (bool, error)

// IsExecutable calls fn.
func (fn OracleFunc) IsExecutable(path string, info fs.FileInfo) (bool, error) {
	return fn(path, info)
}

// ModeOracle accepts regular files with any execute permission bit set.
type ModeOracle struct{}

// IsExecutable implements Oracle.
func (ModeOracle) IsExecutable(_ string, info fs.FileInfo) (bool, error) {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0, nil
}

// ELFOracle accepts executable ELF images (ET_EXEC or ET_DYN with an
// interpreter) that also carry an execute permission bit. Shared libraries
// and object files are rejected.
type ELFOracle struct{}

// IsExecutable implements Oracle.
func (ELFOracle) IsExecutable(path string, info fs.FileInfo) (bool, error) {
	if ok, _ := (ModeOracle{}).IsExecutable(path, info); !ok {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return false, nil
		}
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	magic := make([]byte, len(elf.ELFMAG))
	if _, err := io.ReadFull(f, magic); err != nil {
		// Shorter than the magic: not an ELF file.
		return false, nil
	}
	if !bytes.Equal(magic, []byte(elf.ELFMAG)) {
		return false, nil
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		return false, nil
	}
	defer ef.Close()

	switch ef.Type {
	case elf.ET_EXEC:
		return true, nil
	case elf.ET_DYN:
		// PIE executables are ET_DYN with a PT_INTERP segment.
		for _, p := range ef.Progs {
			if p.Type == elf.PT_INTERP {
				return true, nil
			}
		}
	}
	return false, nil
}

// ExtensionOracle accepts regular files with the given extension.
// It is used to enumerate result files with the same filter machinery.
func ExtensionOracle(ext string) Oracle {
	return OracleFunc(func(path string, info fs.FileInfo) (bool, error) {
		return info.Mode().IsRegular() && strings.EqualFold(filepath.Ext(path), ext), nil
	})
}

// NewOracle returns the named oracle: "mode" (default) or "elf".
func NewOracle(name string) (Oracle, error) {
	switch name {
	case "", "mode":
		return ModeOracle{}, nil
	case "elf":
		return ELFOracle{}, nil
	default:
		return nil, fmt.Errorf("unknown oracle %q: must be \"mode\" or \"elf\"", name)
	}
}

type oracleKey struct {
	path    string
	size    int64
	modTime int64
	mode    fs.FileMode
}

// CachedOracle memoizes another oracle's verdicts.
//
// Entries are keyed by path, size, mode and modification time, so a
// rebuilt executable is classified again. Repositories whose roots overlap
// only pay for classification once.
type CachedOracle struct {
	next  Oracle
	cache *lru.Cache[oracleKey, bool]
}

// NewCachedOracle wraps next with an LRU cache holding up to size verdicts.
func NewCachedOracle(next Oracle, size int) (*CachedOracle, error) {
	cache, err := lru.New[oracleKey, bool](size)
	if err != nil {
		return nil, fmt.Errorf("create oracle cache: %w", err)
	}
	return &CachedOracle{next: next, cache: cache}, nil
}

// IsExecutable implements Oracle.
func (c *CachedOracle) IsExecutable(path string, info fs.FileInfo) (bool, error) {
	key := oracleKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano(), mode: info.Mode()}
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.next.IsExecutable(path, info)
	if err != nil {
		return false, err
	}
	c.cache.Add(key, v)
	return v, nil
}

// Len returns the number of cached verdicts.
func (c *CachedOracle) Len() int {
	return c.cache.Len()
}
