package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/allocscope/internal/inspect"
	"github.com/roach88/allocscope/internal/manifest"
	"github.com/roach88/allocscope/internal/pipeline"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Config  string
	Workers int

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs pipeline.RunIDGenerator

	// Clock allows overriding the inspection clock (for testing).
	Clock inspect.Clock
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return newInspectCommand(&InspectOptions{RootOptions: rootOpts})
}

func newInspectCommand(opts *InspectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <results-dir>",
		Short: "Inspect every repository of the manifest and write result stores",
		Long: `Discover the executables of every repository in the manifest, run the
instrumentation tool against each of them, and write one result store per
repository into <results-dir>, followed by the combined and flattened
cross-repository reports.

A tool failure on one executable is recorded as a status=false row with a
reason; it never stops the run. Ctrl-C lets running inspections finish,
writes the completed rows without AVERAGE/SUM rows, and exits 1.

Example:
  allocscope inspect ./results
  allocscope inspect --config corpus.yaml --workers 8 ./results`,
		Args:          exactArgs(1, "<results-dir>"),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "manifest file (default: allocscope.cue or allocscope.yaml in the working directory)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "concurrent inspections (overrides the manifest)")

	return cmd
}

func runInspect(opts *InspectOptions, resultsDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	abs, err := filepath.Abs(resultsDir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid results directory", err)
	}
	m, err := loadManifest(opts.RootOptions, opts.Config, func(m *manifest.Manifest) {
		m.ResultsDir = abs
		if opts.Workers > 0 {
			m.Workers = opts.Workers
		}
	})
	if err != nil {
		return failManifest(formatter, err)
	}

	p, err := pipeline.New(m, pipeline.Options{
		Logger: logger,
		Clock:  opts.Clock,
		RunIDs: opts.RunIDs,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSetup, "pipeline setup failed", err)
	}

	// Setup signal handling for graceful shutdown.
	// Use command's context if available (for testing), otherwise create one.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return formatter.Fail(ExitFailure, ErrCodeRun, "run failed", err)
	}

	if formatter.JSON() {
		if outErr := formatter.SuccessWithRun(res.RunID, res); outErr != nil {
			return outErr
		}
	} else {
		printRunResult(formatter, res)
	}

	if res.Cancelled {
		return NewExitError(ExitFailure, "run cancelled; partial stores written without AVERAGE/SUM rows")
	}
	return nil
}

func printRunResult(f *OutputFormatter, res *pipeline.Result) {
	rows := make([][]string, 0, len(res.Repositories))
	for _, r := range res.Repositories {
		state := "complete"
		if !r.Complete {
			state = "partial"
		}
		rows = append(rows, []string{
			r.Name,
			fmt.Sprint(r.Targets),
			fmt.Sprint(r.Succeeded),
			fmt.Sprint(r.Failed),
			state,
			r.StorePath,
		})
	}
	f.Table([]string{"REPOSITORY", "TARGETS", "OK", "FAILED", "STATE", "STORE"}, rows)

	if res.Cancelled {
		fmt.Fprintf(f.Writer, "\nRun %s cancelled; reports not written.\n", res.RunID)
		return
	}
	fmt.Fprintf(f.Writer, "\nRun %s finished.\n", res.RunID)
	fmt.Fprintf(f.Writer, "Combined report:  %s\n", res.Combined)
	fmt.Fprintf(f.Writer, "Flattened report: %s\n", res.Flattened)
}
