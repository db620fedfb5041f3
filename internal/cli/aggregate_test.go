package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/allocscope/internal/measure"
	"github.com/roach88/allocscope/internal/store"
)

func TestAggregate_Text(t *testing.T) {
	dir := t.TempDir()
	writeStores(t, dir)

	stdout, _, err := execute(t, NewAggregateCommand(testRootOptions("text")), dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "REPOSITORY")
	assert.Contains(t, stdout, "alpha")
	assert.Contains(t, stdout, "beta")
	assert.Contains(t, stdout, "2 store(s) recomputed")

	alpha, err := store.ReadFile(filepath.Join(dir, "alpha.csv"))
	require.NoError(t, err)
	require.True(t, alpha.Aggregated())
	avg, _ := alpha.Reserved(measure.KeyAverage)
	assert.True(t, avg.Status)
}

func TestAggregate_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeStores(t, dir)

	_, _, err := execute(t, NewAggregateCommand(testRootOptions("text")), dir)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "alpha.csv"))
	require.NoError(t, err)

	_, _, err = execute(t, NewAggregateCommand(testRootOptions("text")), dir)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "alpha.csv"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestAggregate_JSONAndSkip(t *testing.T) {
	dir := t.TempDir()
	writeStores(t, dir)
	before, err := os.ReadFile(filepath.Join(dir, "beta.csv"))
	require.NoError(t, err)

	stdout, _, err := execute(t, NewAggregateCommand(testRootOptions("json")), "--skip", "beta.csv", dir)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			Repository string `json:"repository"`
			Failed     int    `json:"failed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "alpha", resp.Data[0].Repository)
	assert.Equal(t, 1, resp.Data[0].Failed)

	after, err := os.ReadFile(filepath.Join(dir, "beta.csv"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAggregate_BrokenStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("not,a,store\n"), 0o644))

	stdout, _, err := execute(t, NewAggregateCommand(testRootOptions("text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeStore)
}
