package aggregate

import (
	"math"

	"github.com/roach88/allocscope/internal/measure"
)

// Pair names two columns to correlate.
type Pair struct {
	X, Y measure.Field
}

func (p Pair) String() string {
	return p.X.String() + "~" + p.Y.String()
}

// DefaultPairs are the column pairs reported by the correlate command.
var DefaultPairs = []Pair{
	{measure.HeapAllocsFraction, measure.BytesAllocated},
	{measure.HeapAllocsFraction, measure.ExecutableSize},
	{measure.HeapAllocs, measure.ExecutableSize},
	{measure.StackAllocs, measure.ExecutableSize},
}

// Correlation is the Pearson coefficient of one pair.
type Correlation struct {
	Pair   Pair
	Points int
	R      measure.Value
}

// Correlate computes the Pearson correlation coefficient of x and y over
// the successful, non-reserved rows where both cells are numbers. Fewer
// than two points or a constant column yields the missing marker.
func Correlate(rows []measure.Row, p Pair) Correlation {
	var xs, ys []float64
	for _, row := range rows {
		if row.Reserved() || !row.Status {
			continue
		}
		x, okx := row.Get(p.X).Float()
		y, oky := row.Get(p.Y).Float()
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return Correlation{Pair: p, Points: len(xs), R: pearson(xs, ys)}
}

func pearson(xs, ys []float64) measure.Value {
	n := len(xs)
	if n < 2 {
		return measure.Missing()
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return measure.Missing()
	}
	r := sxy / math.Sqrt(sxx*syy)
	// Clamp rounding noise.
	return measure.Number(math.Max(-1, math.Min(1, r)))
}
