package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/allocscope/internal/manifest"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool                       `json:"valid"`
	Manifest     string                     `json:"manifest,omitempty"`
	Repositories int                        `json:"repositories,omitempty"`
	Errors       []manifest.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [manifest]",
		Short: "Validate a pipeline manifest",
		Long: `Load a CUE or YAML manifest, check it against the manifest schema, apply
environment overrides and report every problem found. Nothing is
inspected and no files are written.

Without an argument the default manifest of the working directory is
validated (allocscope.cue, allocscope.yaml or allocscope.yml).`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("validate: expected at most one manifest, got %d", len(args)))
			}
			return nil
		},
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	m, err := loadManifest(opts, path, nil)

	var verrs manifest.ValidationErrors
	if errors.As(err, &verrs) {
		return outputValidationErrors(formatter, verrs)
	}
	if err != nil {
		var le *manifest.LoadError
		if errors.As(err, &le) {
			msg := le.Message
			if le.Pos.IsValid() {
				msg = fmt.Sprintf("%s:%d:%d: %s", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column(), msg)
			}
			return outputValidateError(formatter, le.Code, msg)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}

	formatter.VerboseLog("Manifest directory: %s", m.Dir)
	for _, repo := range m.Repositories {
		formatter.VerboseLog("Repository %s: %d root(s)", repo.Name, len(repo.Roots))
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Manifest: m.Dir, Repositories: len(m.Repositories)})
	}
	fmt.Fprintf(formatter.Writer, "✓ Manifest valid (%d repositories)\n", len(m.Repositories))
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// A manifest that cannot be read is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation problem.
func outputValidationErrors(formatter *OutputFormatter, errs manifest.ValidationErrors) error {
	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
