package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/allocscope/internal/aggregate"
	"github.com/roach88/allocscope/internal/report"
)

// AggregateOptions holds flags for the aggregate command.
type AggregateOptions struct {
	*RootOptions
	Skip []string
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AggregateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "aggregate <results-dir>",
		Short: "Recompute AVERAGE/SUM rows of every result store in a directory",
		Long: `Recompute the AVERAGE and SUM rows of every *.csv result store directly
inside <results-dir> and rewrite each store atomically.

Recomputation only reads the measurement rows, so running it again yields
byte-identical files. A store that fails to load aborts the command.

Example:
  allocscope aggregate ./results
  allocscope aggregate --skip legacy.csv ./results`,
		Args:          exactArgs(1, "<results-dir>"),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Skip, "skip", nil, "store file names to leave untouched")

	return cmd
}

// aggregateEntry is one store in the aggregate command output.
type aggregateEntry struct {
	Repository string            `json:"repository"`
	Summary    aggregate.Summary `json:"summary"`
	Failed     int               `json:"failed"`
}

func runAggregate(opts *AggregateOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	stores, err := report.RecomputeDir(dir, opts.Skip)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "aggregate failed", err)
	}

	entries := make([]aggregateEntry, 0, len(stores))
	for _, n := range stores {
		sum, err := aggregate.Summarize(n.Name, n.Store)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeStore, "aggregate failed", err)
		}
		entries = append(entries, aggregateEntry{Repository: n.Name, Summary: sum, Failed: n.Store.Failures()})
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Repository,
			fmt.Sprint(e.Summary.ExecutableCount),
			fmt.Sprint(e.Failed),
			e.Summary.AvgHeapAllocsFraction.String(),
			e.Summary.AvgHeapAllocs.String(),
			e.Summary.AvgStackAllocs.String(),
		})
	}
	formatter.Table([]string{"REPOSITORY", "EXECUTABLES", "FAILED", "AVG_HEAP_FRACTION", "AVG_HEAP_ALLOCS", "AVG_STACK_ALLOCS"}, rows)
	fmt.Fprintf(formatter.Writer, "\n%d store(s) recomputed in %s\n", len(entries), dir)
	return nil
}
