package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/allocscope/internal/manifest"
	"github.com/roach88/allocscope/internal/pipeline"
)

// DiscoverOptions holds flags for the discover command.
type DiscoverOptions struct {
	*RootOptions
	Config string
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiscoverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List the executables each repository would inspect",
		Long: `Apply every repository's filter and executable oracle and print the
discovered paths without running the instrumentation tool.`,
		Args:          exactArgs(0, "no arguments"),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "manifest file (default: allocscope.cue or allocscope.yaml in the working directory)")

	return cmd
}

func runDiscover(opts *DiscoverOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// discover never writes results, so a missing results_dir is not an error.
	m, err := loadManifest(opts.RootOptions, opts.Config, func(m *manifest.Manifest) {
		if m.ResultsDir == "" {
			m.ResultsDir = "."
		}
	})
	if err != nil {
		return failManifest(formatter, err)
	}

	p, err := pipeline.New(m, pipeline.Options{Logger: opts.logger(cmd.ErrOrStderr())})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSetup, "pipeline setup failed", err)
	}
	found, err := p.Discover()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSetup, "discovery failed", err)
	}

	if formatter.JSON() {
		return formatter.Success(found)
	}
	for _, d := range found {
		fmt.Fprintf(formatter.Writer, "%s (%d)\n", d.Repository, len(d.Paths))
		for _, p := range d.Paths {
			fmt.Fprintf(formatter.Writer, "  %s\n", p)
		}
	}
	return nil
}
