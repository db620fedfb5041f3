package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/allocscope/internal/measure"
	"github.com/roach88/allocscope/internal/store"
	"github.com/roach88/allocscope/internal/testutil"
)

// testRootOptions isolates commands from the host environment.
func testRootOptions(format string) *RootOptions {
	return &RootOptions{Format: format, Getenv: func(string) string { return "" }}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// createCorpus builds a corpus with three targets (the second times out
// in stage 2), a fake tool and a YAML manifest without results_dir.
// It returns the manifest path and the tool path.
func createCorpus(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus")
	testutil.Target(t, corpus, "a_test", 100)
	testutil.Target(t, corpus, "b_test", 200)
	testutil.Target(t, corpus, "c_test", 300)

	tool := testutil.FakeTool(t, map[string]testutil.Behavior{
		"a_test": {Stdout: testutil.OKRecord},
		"b_test": {ExitCode: measure.ExitStage2Timeout},
		"c_test": {Stdout: "20,1,50,50,800,16,1,0,0.5,0.5\n"},
	})

	manifest := strings.Join([]string{
		"tool: " + tool,
		"repositories:",
		"  - name: demo",
		"    roots: [corpus]",
		"",
	}, "\n")
	path := filepath.Join(dir, "allocscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path, tool
}

// writeStores writes two raw stores, alpha and beta, into dir.
func writeStores(t *testing.T, dir string) {
	t.Helper()
	num := measure.Number
	var m1, m2 [measure.ToolFieldCount]measure.Value
	for i, v := range []float64{10, 1, 30, 28, 480, 16, 1, 0, 0.25, 0.75} {
		m1[i] = num(v)
	}
	for i, v := range []float64{20, 1, 50, 50, 800, 16, 1, 0, 0.5, 0.5} {
		m2[i] = num(v)
	}

	alpha, err := store.New([]measure.Row{
		measure.Succeeded("bin/a_test", m1, num(100), num(1.5)),
		measure.Failed("bin/b_test", measure.ReasonStage2Timeout, num(200), num(0.5)),
		measure.Succeeded("bin/c_test", m2, num(300), num(2.5)),
	})
	require.NoError(t, err)
	beta, err := store.New([]measure.Row{
		measure.Failed("bin/a_test", measure.ReasonStage1Timeout, num(100), num(1)),
		measure.Failed("bin/z_test", measure.ReasonMalformedOutput, num(200), num(2)),
	})
	require.NoError(t, err)

	require.NoError(t, store.WriteFile(filepath.Join(dir, "alpha.csv"), alpha))
	require.NoError(t, store.WriteFile(filepath.Join(dir, "beta.csv"), beta))
}
