package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// DefaultNames are the manifest file names looked up by Find, in order.
var DefaultNames = []string{"allocscope.cue", "allocscope.yaml", "allocscope.yml"}

// Load error codes.
const (
	ErrCodeGeneric  = "E001" // Generic/unknown error
	ErrCodeFormat   = "E003" // Unsupported manifest format
	ErrCodeParse    = "E004" // Manifest does not parse
	ErrCodeNotFound = "E005" // Path not found
	ErrCodeSchema   = "E006" // Manifest does not match the schema
	ErrCodeEnv      = "E008" // Invalid environment override
)

// LoadError represents an error that occurred while reading a manifest.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Find returns the first default manifest present in dir.
func Find(dir string) (string, error) {
	for _, name := range DefaultNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no manifest (%v) found in %s", DefaultNames, dir)}
}

// Load reads, resolves and validates the manifest at path.
//
// getenv supplies environment overrides; nil disables them. When the
// manifest decodes but fails validation, Load returns the manifest together
// with a ValidationErrors.
func Load(path string, getenv func(string) string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("read manifest: %v", err)}
	}

	var m *Manifest
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		m, err = decodeCUE(path, data)
	case ".yaml", ".yml":
		m, err = decodeYAML(data)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported manifest format %q (want .cue, .yaml or .yml)", ext)}
	}
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	m.Dir = dir
	m.resolvePaths(dir)

	if getenv != nil {
		if err := m.ApplyEnv(getenv); err != nil {
			return nil, &LoadError{Code: ErrCodeEnv, Message: err.Error()}
		}
	}
	m.setDefaults()

	if errs := m.Validate(); len(errs) > 0 {
		return m, ValidationErrors(errs)
	}
	return m, nil
}

func decodeCUE(path string, data []byte) (*Manifest, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, convertCUEError(path, ErrCodeParse, err)
	}

	value = schema.LookupPath(cue.ParsePath("#Manifest")).Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, convertCUEError(path, ErrCodeSchema, err)
	}

	var m Manifest
	if err := value.Decode(&m); err != nil {
		return nil, convertCUEError(path, ErrCodeSchema, err)
	}
	return &m, nil
}

func decodeYAML(data []byte) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeParse, Message: "manifest is empty"}
		}
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error()}
	}
	return &m, nil
}

// convertCUEError keeps the first CUE error. Its position is the first one
// inside the manifest at path; positions in the embedded schema are used
// only when the manifest has none.
func convertCUEError(path, code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	positions := cueerrors.Positions(first)
	for _, pos := range positions {
		if pos.Filename() == path {
			le.Pos = pos
			return le
		}
	}
	if len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
