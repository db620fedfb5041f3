package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MatchMode controls how Accept substrings are combined.
type MatchMode string

const (
	// MatchAll requires a file name to contain every Accept substring.
	MatchAll MatchMode = "all"
	// MatchAny requires a file name to contain at least one Accept substring.
	MatchAny MatchMode = "any"
)

// Filter is the declarative discovery configuration for one repository.
// It is a plain value; Discover never mutates it.
type Filter struct {
	// Accept lists substrings a file name must contain. Empty means no
	// requirement on the name.
	Accept []string `json:"accept,omitempty" yaml:"accept,omitempty"`

	// AcceptMode selects all-of (default) or any-of matching for Accept.
	AcceptMode MatchMode `json:"accept_mode,omitempty" yaml:"accept_mode,omitempty"`

	// Ignore lists substrings that exclude a file name, or a directory
	// name from traversal, when any of them matches.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	// Skip lists explicitly excluded paths. An entry without a path
	// separator matches by base name.
	Skip []string `json:"skip,omitempty" yaml:"skip,omitempty"`

	// Recursive enables traversal of subdirectories.
	Recursive bool `json:"recursive,omitempty" yaml:"recursive,omitempty"`
}

// Validate checks the filter for unsupported settings.
func (f Filter) Validate() error {
	switch f.AcceptMode {
	case "", MatchAll, MatchAny:
	default:
		return fmt.Errorf("invalid accept_mode %q: must be %q or %q", f.AcceptMode, MatchAll, MatchAny)
	}
	for _, s := range f.Accept {
		if s == "" {
			return fmt.Errorf("accept contains an empty substring")
		}
	}
	for _, s := range f.Ignore {
		if s == "" {
			return fmt.Errorf("ignore contains an empty substring")
		}
	}
	return nil
}

// AcceptsName reports whether a file name passes the Accept and Ignore rules.
func (f Filter) AcceptsName(name string) bool {
	if f.ignores(name) {
		return false
	}
	if len(f.Accept) == 0 {
		return true
	}
	if f.AcceptMode == MatchAny {
		for _, s := range f.Accept {
			if strings.Contains(name, s) {
				return true
			}
		}
		return false
	}
	for _, s := range f.Accept {
		if !strings.Contains(name, s) {
			return false
		}
	}
	return true
}

// EntersDir reports whether a subdirectory with the given name is traversed.
func (f Filter) EntersDir(name string) bool {
	return f.Recursive && !f.ignores(name)
}

// Skips reports whether path is on the explicit skip list.
func (f Filter) Skips(path string) bool {
	clean := filepath.Clean(path)
	base := filepath.Base(clean)
	for _, s := range f.Skip {
		if strings.ContainsRune(s, filepath.Separator) || strings.ContainsRune(s, '/') {
			if filepath.Clean(s) == clean {
				return true
			}
			if abs, err := filepath.Abs(s); err == nil {
				if cabs, err := filepath.Abs(clean); err == nil && abs == cabs {
					return true
				}
			}
			continue
		}
		if s == base {
			return true
		}
	}
	return false
}

func (f Filter) ignores(name string) bool {
	for _, s := range f.Ignore {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}
