package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/allocscope/internal/manifest"
)

// loadManifest loads the manifest at path, or the default manifest of the
// working directory when path is empty. Environment overrides apply, then
// override (command-line values), then validation.
func loadManifest(opts *RootOptions, path string, override func(*manifest.Manifest)) (*manifest.Manifest, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, err = manifest.Find(wd)
		if err != nil {
			return nil, err
		}
	}

	m, err := manifest.Load(path, opts.getenv)
	var verrs manifest.ValidationErrors
	if err != nil && !errors.As(err, &verrs) {
		return nil, err
	}
	if override != nil {
		override(m)
	}
	if errs := m.Validate(); len(errs) > 0 {
		return m, manifest.ValidationErrors(errs)
	}
	return m, nil
}

// manifestErrorCode picks the error code reported for a manifest error.
func manifestErrorCode(err error) string {
	var le *manifest.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var verrs manifest.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Code
	}
	return ErrCodeSetup
}

// failManifest reports a manifest error as a command error.
func failManifest(f *OutputFormatter, err error) error {
	_ = f.Error(manifestErrorCode(err), fmt.Sprintf("load manifest: %v", err), nil)
	return WrapExitError(ExitCommandError, "load manifest", err)
}
