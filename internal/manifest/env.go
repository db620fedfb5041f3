package manifest

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// Environment overrides.
const (
	EnvTool       = "ALLOCSCOPE_TOOL"
	EnvResultsDir = "ALLOCSCOPE_RESULTS_DIR"
	EnvWorkers    = "ALLOCSCOPE_WORKERS"
)

// ApplyEnv overrides manifest fields from the environment. Relative paths
// in the environment resolve against the working directory.
func (m *Manifest) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvTool); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTool, err)
		}
		m.Tool = abs
	}
	if v := getenv(EnvResultsDir); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvResultsDir, err)
		}
		m.ResultsDir = abs
	}
	if v := getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: want a positive integer, got %q", EnvWorkers, v)
		}
		m.Workers = n
	}
	return nil
}
