package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/allocscope/internal/aggregate"
	"github.com/roach88/allocscope/internal/measure"
	"github.com/roach88/allocscope/internal/store"
	"github.com/roach88/allocscope/internal/testutil"
)

func num(f float64) measure.Value { return measure.Number(f) }

func metrics(vals ...float64) [measure.ToolFieldCount]measure.Value {
	var m [measure.ToolFieldCount]measure.Value
	for i, v := range vals {
		m[i] = num(v)
	}
	return m
}

func alphaRows() []measure.Row {
	return []measure.Row{
		measure.Succeeded("bin/a_test", metrics(10, 1, 30, 28, 480, 16, 1, 0, 0.25, 0.75), num(100), num(1.5)),
		measure.Failed("bin/b_test", measure.ReasonStage2Timeout, num(200), num(0.5)),
		measure.Succeeded("bin/c_test", metrics(20, 1, 50, 50, 800, 16, 1, 0, 0.5, 0.5), num(300), num(2.5)),
	}
}

func betaRows() []measure.Row {
	return []measure.Row{
		measure.Failed("bin/a_test", measure.ReasonStage1Timeout, num(100), num(1)),
		measure.Failed("bin/z_test", measure.ReasonMalformedOutput, num(200), num(2)),
	}
}

func recomputed(t *testing.T, rows []measure.Row) *store.Store {
	t.Helper()
	s, err := store.New(rows)
	require.NoError(t, err)
	out, err := aggregate.Recompute(s)
	require.NoError(t, err)
	return out
}

func createTestStores(t *testing.T) []Named {
	return []Named{
		{Name: "alpha", Store: recomputed(t, alphaRows())},
		{Name: "beta", Store: recomputed(t, betaRows())},
	}
}

func TestCombineFold(t *testing.T) {
	withAverage := func(fraction float64) *store.Store {
		s, err := store.New([]measure.Row{
			measure.Succeeded("bin/one", metrics(1, 1, 1, 1, 1, 1, 1, 0, 0.5, 0.5), num(1), num(1)),
			measure.Succeeded("bin/two", metrics(1, 1, 1, 1, 1, 1, 1, 0, 0.5, 0.5), num(1), num(1)),
		})
		require.NoError(t, err)
		avg := measure.Row{Executable: measure.KeyAverage, Status: true}.With(measure.HeapAllocsFraction, num(fraction))
		sum := measure.Row{Executable: measure.KeySum, Status: true}
		s, err = s.WithReserved(avg)
		require.NoError(t, err)
		s, err = s.WithReserved(sum)
		require.NoError(t, err)
		return s
	}

	table, err := Combine([]Named{
		{Name: "first", Store: withAverage(0.3)},
		{Name: "second", Store: withAverage(0.7)},
	})
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, "first", table[0].Repository)
	assert.Equal(t, 2, table[0].ExecutableCount)
	assert.Equal(t, "0.3", table[0].AvgHeapAllocsFraction.String())
	assert.Equal(t, "second", table[1].Repository)
	assert.Equal(t, 2, table[1].ExecutableCount)
	assert.Equal(t, "0.7", table[1].AvgHeapAllocsFraction.String())
}

func TestCombineRejectsUnaggregatedStore(t *testing.T) {
	raw, err := store.New(alphaRows())
	require.NoError(t, err)

	_, err = Combine([]Named{
		{Name: "alpha", Store: recomputed(t, alphaRows())},
		{Name: "raw", Store: raw},
	})
	require.ErrorIs(t, err, aggregate.ErrNotAggregated)
	assert.Contains(t, err.Error(), "raw")
}

func TestEncodeSummariesGolden(t *testing.T) {
	table, err := Combine(createTestStores(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeSummaries(&buf, table))
	testutil.AssertGolden(t, "combined", buf.Bytes())
}

func TestFlattenOrder(t *testing.T) {
	rows := Flatten(createTestStores(t), "")
	require.Len(t, rows, 5, "reserved rows are not flattened")

	var got []string
	for _, r := range rows {
		got = append(got, r.Repository+":"+r.Row.Executable)
	}
	assert.Equal(t, []string{
		"alpha:bin/c_test",
		"alpha:bin/a_test",
		"beta:bin/z_test",
		"alpha:bin/b_test",
		"beta:bin/a_test",
	}, got)

	for i, r := range rows {
		if !r.Row.Status {
			for _, later := range rows[i:] {
				assert.False(t, later.Row.Status, "failures sink to the bottom")
			}
			break
		}
	}
}

func TestEncodeFlattenedGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFlattened(&buf, Flatten(createTestStores(t), "")))
	testutil.AssertGolden(t, "flattened", buf.Bytes())
}

func TestFlattenedRoundTripWithGroup(t *testing.T) {
	rows := Flatten(createTestStores(t), "c")

	var buf bytes.Buffer
	require.NoError(t, EncodeFlattened(&buf, rows))
	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.True(t, strings.HasSuffix(header, ",repository,group"))

	back, err := DecodeFlattened(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

func TestMergeGroupedTables(t *testing.T) {
	stores := createTestStores(t)
	merged := append(Flatten(stores[:1], "c"), Flatten(stores[1:], "cpp")...)
	Sort(merged)

	assert.Equal(t, "c", merged[0].Group)
	assert.True(t, merged[0].Row.Status)
	last := merged[len(merged)-1]
	assert.Equal(t, "cpp", last.Group)
	assert.Equal(t, "bin/a_test", last.Row.Executable)
	assert.Len(t, Rows(merged), 5)
}

func TestDecodeFlattenedRejectsStoreFile(t *testing.T) {
	data, err := store.Bytes(recomputed(t, alphaRows()))
	require.NoError(t, err)
	_, err = DecodeFlattened(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrFlattenedHeader)

	_, err = DecodeFlattened(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrFlattenedHeader)
}

func TestDecodeFlattenedRejectsShortRecord(t *testing.T) {
	header := strings.Join(flattenedHeader(false), ",")
	_, err := DecodeFlattened(strings.NewReader(header + "\nbin/x,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func writeStore(t *testing.T, path string, rows []measure.Row) {
	t.Helper()
	s, err := store.New(rows)
	require.NoError(t, err)
	require.NoError(t, store.WriteFile(path, s))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, filepath.Join(dir, "zeta.csv"), betaRows())
	writeStore(t, filepath.Join(dir, "alpha.csv"), alphaRows())
	writeStore(t, filepath.Join(dir, "skipped.csv"), alphaRows())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "reports"), 0o755))
	writeStore(t, filepath.Join(dir, "reports", "nested.csv"), alphaRows())

	stores, err := LoadDir(dir, []string{"skipped.csv"})
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "alpha", stores[0].Name)
	assert.Equal(t, "zeta", stores[1].Name)
	assert.False(t, stores[0].Store.Aggregated())
}

func TestLoadDirFailsOnBrokenStore(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, filepath.Join(dir, "alpha.csv"), alphaRows())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("nope\n"), 0o644))

	_, err := LoadDir(dir, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrHeaderMismatch)
	assert.Contains(t, err.Error(), "broken.csv")
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "none"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecomputeDirAndWriteReports(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, filepath.Join(dir, "alpha.csv"), alphaRows())
	writeStore(t, filepath.Join(dir, "beta.csv"), betaRows())

	stores, err := RecomputeDir(dir, nil)
	require.NoError(t, err)
	table, err := Combine(stores)
	require.NoError(t, err)

	out := t.TempDir()
	combined := filepath.Join(out, "combined.csv")
	flattened := filepath.Join(out, "flattened.csv")
	require.NoError(t, WriteSummaries(combined, table))
	require.NoError(t, WriteFlattened(flattened, Flatten(stores, "")))

	got, err := os.ReadFile(combined)
	require.NoError(t, err)
	testutil.AssertGolden(t, "combined", got)

	got, err = os.ReadFile(flattened)
	require.NoError(t, err)
	testutil.AssertGolden(t, "flattened", got)

	reloaded, err := LoadDir(dir, nil)
	require.NoError(t, err)
	for _, n := range reloaded {
		assert.True(t, n.Store.Aggregated(), n.Name)
	}
}

func TestRepositoryName(t *testing.T) {
	assert.Equal(t, "openssl", RepositoryName("/results/openssl.csv"))
	assert.Equal(t, "lib.v2", RepositoryName("lib.v2.csv"))
}

func TestShadowsStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"csv in results dir", filepath.Join(dir, "combined.csv"), true},
		{"upper-case extension", filepath.Join(dir, "combined.CSV"), true},
		{"default reports subdir", filepath.Join(dir, "reports", "combined.csv"), false},
		{"other extension", filepath.Join(dir, "combined.tsv"), false},
		{"elsewhere", filepath.Join(t.TempDir(), "combined.csv"), false},
		{"relative spelling", filepath.Join(dir, "sub", "..", "x.csv"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShadowsStore(dir, tt.path))
		})
	}
}
