package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/allocscope/internal/measure"
)

func TestCorrelatePerfect(t *testing.T) {
	var rows []measure.Row
	for i := 1; i <= 4; i++ {
		f := float64(i)
		rows = append(rows, measure.Succeeded("x"+string(rune('0'+i)), metrics(f, 1, 2*f, 0, 0, 0, 0, 0, 0, 0), num(10*f), num(1)))
	}
	c := Correlate(rows, Pair{measure.HeapAllocs, measure.ExecutableSize})
	assert.Equal(t, 4, c.Points)
	assert.Equal(t, "1", c.R.String())
	assert.Equal(t, "heap_allocs~executable_size", c.Pair.String())
}

func TestCorrelateNegative(t *testing.T) {
	rows := []measure.Row{
		measure.Succeeded("a", metrics(1, 0, 0, 0, 0, 0, 0, 0, 0, 0), num(3), num(1)),
		measure.Succeeded("b", metrics(2, 0, 0, 0, 0, 0, 0, 0, 0, 0), num(2), num(1)),
		measure.Succeeded("c", metrics(3, 0, 0, 0, 0, 0, 0, 0, 0, 0), num(1), num(1)),
	}
	c := Correlate(rows, Pair{measure.StackAllocs, measure.ExecutableSize})
	assert.Equal(t, "-1", c.R.String())
}

func TestCorrelateDegenerate(t *testing.T) {
	one := []measure.Row{measure.Succeeded("a", metrics(1, 0, 0, 0, 0, 0, 0, 0, 0, 0), num(3), num(1))}
	assert.Equal(t, measure.KindMissing, Correlate(one, DefaultPairs[3]).R.Kind())

	constant := []measure.Row{
		measure.Succeeded("a", metrics(1, 0, 0, 0, 0, 0, 0, 0, 0, 0), num(3), num(1)),
		measure.Succeeded("b", metrics(1, 0, 0, 0, 0, 0, 0, 0, 0, 0), num(4), num(1)),
	}
	assert.Equal(t, measure.KindMissing, Correlate(constant, DefaultPairs[3]).R.Kind())
}

func TestCorrelateIgnoresFailuresAndReservedRows(t *testing.T) {
	rows := scenarioRows()
	rows = append(rows, measure.Row{Executable: measure.KeySum, Status: true}.
		With(measure.StackAllocs, num(1000)).With(measure.ExecutableSize, num(0)))
	c := Correlate(rows, Pair{measure.StackAllocs, measure.ExecutableSize})
	assert.Equal(t, 2, c.Points)
	assert.Equal(t, "1", c.R.String())
}
