package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/allocscope/internal/aggregate"
	"github.com/roach88/allocscope/internal/measure"
	"github.com/roach88/allocscope/internal/report"
	"github.com/roach88/allocscope/internal/store"
)

// CorrelateOptions holds flags for the correlate command.
type CorrelateOptions struct {
	*RootOptions
	Pairs []string
}

// NewCorrelateCommand creates the correlate command.
func NewCorrelateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CorrelateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "correlate <store-or-flattened-report>",
		Short: "Pearson correlation between measurement columns",
		Long: `Compute the Pearson correlation coefficient between pairs of numeric
columns over the successful rows of a result store or a flattened report.
Fewer than two usable rows, or a constant column, yields NA.

Default pairs:
  heap_allocs_fraction~bytes_allocated
  heap_allocs_fraction~executable_size
  heap_allocs~executable_size
  stack_allocs~executable_size

Example:
  allocscope correlate results/openssl.csv
  allocscope correlate --pair heap_frees~elapsed_time results/reports/flattened.csv`,
		Args:          exactArgs(1, "<store-or-flattened-report>"),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrelate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Pairs, "pair", nil, "column pair x~y (repeatable)")

	return cmd
}

// correlationEntry is one line of correlate output.
type correlationEntry struct {
	Pair   string        `json:"pair"`
	Points int           `json:"points"`
	R      measure.Value `json:"r"`
}

func runCorrelate(opts *CorrelateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pairs, err := parsePairs(opts.Pairs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid --pair", err)
	}

	rows, err := loadRows(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "load rows", err)
	}
	formatter.VerboseLog("loaded %d row(s) from %s", len(rows), path)

	entries := make([]correlationEntry, 0, len(pairs))
	for _, p := range pairs {
		c := aggregate.Correlate(rows, p)
		entries = append(entries, correlationEntry{Pair: p.String(), Points: c.Points, R: c.R})
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	table := make([][]string, 0, len(entries))
	for _, e := range entries {
		table = append(table, []string{e.Pair, fmt.Sprint(e.Points), e.R.String()})
	}
	formatter.Table([]string{"PAIR", "POINTS", "R"}, table)
	return nil
}

func parsePairs(args []string) ([]aggregate.Pair, error) {
	if len(args) == 0 {
		return aggregate.DefaultPairs, nil
	}
	pairs := make([]aggregate.Pair, 0, len(args))
	for _, arg := range args {
		xs, ys, ok := strings.Cut(arg, "~")
		if !ok {
			return nil, fmt.Errorf("%q: want x~y", arg)
		}
		x, err := measure.ParseField(strings.TrimSpace(xs))
		if err != nil {
			return nil, err
		}
		y, err := measure.ParseField(strings.TrimSpace(ys))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, aggregate.Pair{X: x, Y: y})
	}
	return pairs, nil
}

// loadRows reads a result store, or a flattened report when the file does
// not carry the store header.
func loadRows(path string) ([]measure.Row, error) {
	s, err := store.ReadFile(path)
	if err == nil {
		return s.Rows(), nil
	}
	if !errors.Is(err, store.ErrHeaderMismatch) {
		return nil, err
	}

	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()
	tagged, flatErr := report.DecodeFlattened(f)
	if flatErr != nil {
		return nil, fmt.Errorf("%s: neither a result store (%v) nor a flattened report (%v)", path, err, flatErr)
	}
	return report.Rows(tagged), nil
}
