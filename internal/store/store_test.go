package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/allocscope/internal/measure"
)

func TestNewKeepsOrder(t *testing.T) {
	s := createTestStore(t)
	require.Equal(t, 2, s.Len())
	rows := s.Rows()
	assert.Equal(t, "bin/a_test", rows[0].Executable)
	assert.Equal(t, "bin/b_test", rows[1].Executable)
	assert.Len(t, s.Successes(), 1)
	assert.Equal(t, 1, s.Failures())
	assert.False(t, s.Aggregated())
}

func TestNewRejectsDuplicateKeys(t *testing.T) {
	_, err := New([]measure.Row{okRow("x", 1, 1), okRow("x", 2, 2)})
	assert.ErrorIs(t, err, ErrDuplicateExecutable)
}

func TestNewKeepsNormalizationEquivalentKeys(t *testing.T) {
	composed := "bin/caf\u00e9_test"
	decomposed := "bin/cafe\u0301_test"
	s, err := New([]measure.Row{okRow(composed, 1, 1), okRow(decomposed, 2, 2)})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	first, ok := s.Row(composed)
	require.True(t, ok)
	assert.Equal(t, "1", first.Get(measure.ExecutableSize).String())
	second, ok := s.Row(decomposed)
	require.True(t, ok)
	assert.Equal(t, "2", second.Get(measure.ExecutableSize).String())

	assert.Equal(t, []EquivalentPair{{First: composed, Second: decomposed}}, s.Equivalents())
}

func TestNewKeysAreExactBytes(t *testing.T) {
	s, err := New([]measure.Row{okRow("bin/a_test", 1, 1), okRow("bin/a_test ", 2, 2)})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Empty(t, s.Equivalents())

	decoded, err := Decode(bytes.NewReader(mustBytes(t, s)))
	require.NoError(t, err)
	rows := decoded.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "bin/a_test", rows[0].Executable)
	assert.Equal(t, "bin/a_test ", rows[1].Executable)
}

func TestEquivalentKeysSurviveRoundTrip(t *testing.T) {
	composed := "bin/caf\u00e9_test"
	decomposed := "bin/cafe\u0301_test"
	s, err := New([]measure.Row{okRow(decomposed, 1, 1), okRow(composed, 2, 2)})
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(mustBytes(t, s)))
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Len())
	assert.Equal(t, s.Equivalents(), decoded.Equivalents())

	recomputed := decoded.WithoutReserved()
	assert.Len(t, recomputed.Equivalents(), 1)
}

func mustBytes(t *testing.T, s *Store) []byte {
	t.Helper()
	data, err := Bytes(s)
	require.NoError(t, err)
	return data
}

func TestNewRejectsReservedKeys(t *testing.T) {
	_, err := New([]measure.Row{okRow(measure.KeyAverage, 1, 1)})
	assert.ErrorIs(t, err, ErrReservedKey)
}

func TestNewRejectsFailedRowWithoutReason(t *testing.T) {
	row := measure.Failed("x", measure.ReasonNone, num(1), num(1))
	_, err := New([]measure.Row{row})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reason")
}

func TestRowLookup(t *testing.T) {
	s := createTestStore(t)
	row, ok := s.Row("bin/b_test")
	require.True(t, ok)
	assert.Equal(t, measure.ReasonStage2Timeout, row.Reason)

	_, ok = s.Row("bin/none")
	assert.False(t, ok)
}

func TestRowsReturnsCopy(t *testing.T) {
	s := createTestStore(t)
	rows := s.Rows()
	rows[0].Executable = "mutated"

	again := s.Rows()
	assert.Equal(t, "bin/a_test", again[0].Executable)
}

func TestWithReservedDoesNotMutateReceiver(t *testing.T) {
	s := createTestStore(t)
	avg := measure.Row{Executable: measure.KeyAverage, Status: true}
	sum := measure.Row{Executable: measure.KeySum, Status: true}

	withAvg, err := s.WithReserved(avg)
	require.NoError(t, err)
	both, err := withAvg.WithReserved(sum)
	require.NoError(t, err)

	assert.False(t, s.Aggregated())
	assert.False(t, withAvg.Aggregated())
	assert.True(t, both.Aggregated())

	got, ok := both.Reserved(measure.KeyAverage)
	require.True(t, ok)
	assert.Equal(t, avg, got)

	stripped := both.WithoutReserved()
	assert.False(t, stripped.Aggregated())
	assert.True(t, both.Aggregated())
	assert.Equal(t, both.Rows(), stripped.Rows())
}

func TestWithReservedOverwrites(t *testing.T) {
	s := createTestStore(t)
	first := measure.Row{Executable: measure.KeySum}.With(measure.HeapAllocs, num(1))
	second := measure.Row{Executable: measure.KeySum}.With(measure.HeapAllocs, num(2))

	s1, err := s.WithReserved(first)
	require.NoError(t, err)
	s2, err := s1.WithReserved(second)
	require.NoError(t, err)

	got, _ := s2.Reserved(measure.KeySum)
	assert.Equal(t, "2", got.Get(measure.HeapAllocs).String())
	got, _ = s1.Reserved(measure.KeySum)
	assert.Equal(t, "1", got.Get(measure.HeapAllocs).String())
}

func TestWithReservedRejectsMeasurementRow(t *testing.T) {
	s := createTestStore(t)
	_, err := s.WithReserved(okRow("bin/c_test", 1, 1))
	assert.ErrorIs(t, err, ErrNotReserved)
}
