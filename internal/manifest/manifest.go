package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/roach88/allocscope/internal/catalog"
)

// Defaults applied by Load.
const (
	DefaultWorkers   = 1
	DefaultReportDir = "reports"
	DefaultCombined  = "combined.csv"
	DefaultFlattened = "flattened.csv"
)

// Manifest is the pipeline configuration.
type Manifest struct {
	Tool         string       `json:"tool,omitempty" yaml:"tool,omitempty"`
	ResultsDir   string       `json:"results_dir,omitempty" yaml:"results_dir,omitempty"`
	Workers      int          `json:"workers,omitempty" yaml:"workers,omitempty"`
	Timeout      string       `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Oracle       string       `json:"oracle,omitempty" yaml:"oracle,omitempty"`
	Repositories []Repository `json:"repositories" yaml:"repositories"`
	Report       Report       `json:"report,omitempty" yaml:"report,omitempty"`

	// Dir is the directory the manifest was loaded from.
	Dir string `json:"-" yaml:"-"`
}

// Repository is one corpus of executables producing one result store.
type Repository struct {
	Name   string         `json:"name" yaml:"name"`
	Roots  []string       `json:"roots" yaml:"roots"`
	Filter catalog.Filter `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// Report names the cross-repository outputs.
type Report struct {
	Combined  string `json:"combined,omitempty" yaml:"combined,omitempty"`
	Flattened string `json:"flattened,omitempty" yaml:"flattened,omitempty"`
	Group     string `json:"group,omitempty" yaml:"group,omitempty"`
}

// TimeoutDuration returns the hard per-target timeout, 0 when disabled.
func (m *Manifest) TimeoutDuration() (time.Duration, error) {
	if m.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", m.Timeout)
	}
	return d, nil
}

// StorePath returns the result store path of repository name.
func (m *Manifest) StorePath(name string) string {
	return filepath.Join(m.ResultsDir, name+".csv")
}

// Validation error codes (E200-E299)
const (
	ErrCodeToolMissing       = "E201" // tool is required
	ErrCodeResultsDirMissing = "E202" // results_dir is required
	ErrCodeNoRepositories    = "E203" // at least one repository required
	ErrCodeInvalidWorkers    = "E204" // workers must be >= 1
	ErrCodeInvalidTimeout    = "E205" // timeout is not a duration
	ErrCodeInvalidOracle     = "E206" // unknown oracle
	ErrCodeInvalidName       = "E207" // repository name invalid or duplicate
	ErrCodeNoRoots           = "E208" // repository has no roots
	ErrCodeInvalidFilter     = "E209" // filter settings invalid
)

// ErrNoRepositories is wrapped by the validation error for an empty
// repository list.
var ErrNoRepositories = errors.New("manifest has no repositories")

// ValidationError is one problem found by Validate.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`

	err error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.err
}

// ValidationErrors is the error returned by Load when Validate fails.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (es ValidationErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validate checks the manifest and returns every problem found.
func (m *Manifest) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if m.Tool == "" {
		add("tool", ErrCodeToolMissing, "tool is required (or set ALLOCSCOPE_TOOL)")
	}
	if m.ResultsDir == "" {
		add("results_dir", ErrCodeResultsDirMissing, "results_dir is required (or set ALLOCSCOPE_RESULTS_DIR)")
	}
	if m.Workers < 1 {
		add("workers", ErrCodeInvalidWorkers, "workers must be at least 1, got %d", m.Workers)
	}
	if _, err := m.TimeoutDuration(); err != nil {
		add("timeout", ErrCodeInvalidTimeout, "invalid timeout %q: %v", m.Timeout, err)
	}
	if _, err := catalog.NewOracle(m.Oracle); err != nil {
		add("oracle", ErrCodeInvalidOracle, "%v", err)
	}

	if len(m.Repositories) == 0 {
		errs = append(errs, ValidationError{
			Field:   "repositories",
			Code:    ErrCodeNoRepositories,
			Message: "at least one repository is required",
			err:     ErrNoRepositories,
		})
	}
	seen := make(map[string]bool)
	for i, repo := range m.Repositories {
		field := fmt.Sprintf("repositories[%d]", i)
		switch {
		case !namePattern.MatchString(repo.Name):
			add(field+".name", ErrCodeInvalidName, "invalid repository name %q", repo.Name)
		case seen[repo.Name]:
			add(field+".name", ErrCodeInvalidName, "duplicate repository name %q", repo.Name)
		}
		seen[repo.Name] = true

		if len(repo.Roots) == 0 {
			add(field+".roots", ErrCodeNoRoots, "repository %q has no roots", repo.Name)
		}
		if err := repo.Filter.Validate(); err != nil {
			add(field+".filter", ErrCodeInvalidFilter, "%v", err)
		}
	}
	return errs
}

// setDefaults fills unset fields.
func (m *Manifest) setDefaults() {
	if m.Workers == 0 {
		m.Workers = DefaultWorkers
	}
}

// CombinedPath returns the combined report path. Unless set explicitly it
// lives in a subdirectory of ResultsDir so it is never mistaken for a store.
func (m *Manifest) CombinedPath() string {
	if m.Report.Combined != "" {
		return m.Report.Combined
	}
	return filepath.Join(m.ResultsDir, DefaultReportDir, DefaultCombined)
}

// FlattenedPath returns the flattened report path.
func (m *Manifest) FlattenedPath() string {
	if m.Report.Flattened != "" {
		return m.Report.Flattened
	}
	return filepath.Join(m.ResultsDir, DefaultReportDir, DefaultFlattened)
}

// resolvePaths makes every relative path absolute against base.
func (m *Manifest) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	m.Tool = resolve(m.Tool)
	m.ResultsDir = resolve(m.ResultsDir)
	m.Report.Combined = resolve(m.Report.Combined)
	m.Report.Flattened = resolve(m.Report.Flattened)
	for i := range m.Repositories {
		repo := &m.Repositories[i]
		for j, root := range repo.Roots {
			repo.Roots[j] = resolve(root)
		}
		// Skip entries naming a path (not a bare file name) are paths too.
		for j, skip := range repo.Filter.Skip {
			if strings.ContainsRune(skip, '/') {
				repo.Filter.Skip[j] = resolve(skip)
			}
		}
	}
}
