package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/allocscope/internal/measure"
)

func num(f float64) measure.Value { return measure.Number(f) }

// okRow creates a successful row with the standard fake-tool metrics.
func okRow(exe string, size, elapsed float64) measure.Row {
	metrics := [measure.ToolFieldCount]measure.Value{
		num(10), num(1), num(30), num(28), num(480), num(16), num(1), num(0), num(0.25), num(0.75),
	}
	return measure.Succeeded(exe, metrics, num(size), num(elapsed))
}

// createTestStore builds a two-row store: one success, one stage-2 timeout.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New([]measure.Row{
		okRow("bin/a_test", 100, 1.5),
		measure.Failed("bin/b_test", measure.ReasonStage2Timeout, num(200), num(0.5)),
	})
	require.NoError(t, err)
	return s
}
