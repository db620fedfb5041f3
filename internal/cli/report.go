package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/allocscope/internal/manifest"
	"github.com/roach88/allocscope/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Combined  string
	Flattened string
	Group     string
	Skip      []string

	// NoRecompute reads the stores as they are instead of rewriting them.
	NoRecompute bool
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <results-dir>",
		Short: "Build the combined and flattened cross-repository reports",
		Long: `Recompute every result store in <results-dir>, then write:

  combined   one row per repository (executable count, AVERAGE/SUM of
             heap-allocs fraction, stack allocs and heap allocs)
  flattened  every measurement row of every store, tagged with its
             repository, successful rows first

Repository names are the store file names without extension. Reports go
to <results-dir>/reports/ unless --combined/--flattened are given; a .csv
report directly inside <results-dir> is rejected because it would be read
as a store. With --no-recompute the stores are only read, and each must
already carry its AVERAGE/SUM rows.

Example:
  allocscope report ./results
  allocscope report --group c --flattened c_all.csv ./results`,
		Args:          exactArgs(1, "<results-dir>"),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Combined, "combined", "", "combined report path")
	cmd.Flags().StringVar(&opts.Flattened, "flattened", "", "flattened report path")
	cmd.Flags().StringVar(&opts.Group, "group", "", "group label added to every flattened row (e.g. c, cpp)")
	cmd.Flags().StringSliceVar(&opts.Skip, "skip", nil, "store file names to leave out")
	cmd.Flags().BoolVar(&opts.NoRecompute, "no-recompute", false, "read stores without rewriting their AVERAGE/SUM rows")

	return cmd
}

// reportResult is the JSON payload of the report command.
type reportResult struct {
	Repositories int    `json:"repositories"`
	Rows         int    `json:"rows"`
	Combined     string `json:"combined"`
	Flattened    string `json:"flattened"`
}

func runReport(opts *ReportOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	combined := opts.Combined
	if combined == "" {
		combined = filepath.Join(dir, manifest.DefaultReportDir, manifest.DefaultCombined)
	}
	flattened := opts.Flattened
	if flattened == "" {
		flattened = filepath.Join(dir, manifest.DefaultReportDir, manifest.DefaultFlattened)
	}

	for _, path := range []string{combined, flattened} {
		if report.ShadowsStore(dir, path) {
			return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid report path",
				fmt.Errorf("%s would be read as a result store of %s", path, dir))
		}
	}

	load := report.RecomputeDir
	if opts.NoRecompute {
		load = report.LoadDir
	}
	stores, err := load(dir, opts.Skip)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "report failed", err)
	}
	table, err := report.Combine(stores)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "report failed", err)
	}
	rows := report.Flatten(stores, opts.Group)

	for _, path := range []string{combined, flattened} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "create report directory", err)
		}
	}
	if err := report.WriteSummaries(combined, table); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "write combined report", err)
	}
	if err := report.WriteFlattened(flattened, rows); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "write flattened report", err)
	}

	res := reportResult{Repositories: len(table), Rows: len(rows), Combined: combined, Flattened: flattened}
	if formatter.JSON() {
		return formatter.Success(res)
	}
	fmt.Fprintf(formatter.Writer, "%d repositories, %d rows\n", res.Repositories, res.Rows)
	fmt.Fprintf(formatter.Writer, "Combined report:  %s\n", res.Combined)
	fmt.Fprintf(formatter.Writer, "Flattened report: %s\n", res.Flattened)
	return nil
}
