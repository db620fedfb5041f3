package aggregate

import (
	"fmt"

	"github.com/roach88/allocscope/internal/measure"
	"github.com/roach88/allocscope/internal/store"
)

// Recompute returns a copy of s whose AVERAGE and SUM rows are derived
// from the current measurement rows. Any reserved rows already present are
// discarded first, so Recompute(Recompute(s)) encodes identically to
// Recompute(s).
func Recompute(s *store.Store) (*store.Store, error) {
	avg, sum := Reserved(s.Rows())

	out, err := s.WithoutReserved().WithReserved(avg)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", measure.KeyAverage, err)
	}
	out, err = out.WithReserved(sum)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", measure.KeySum, err)
	}
	return out, nil
}

// Reserved computes the AVERAGE and SUM rows for rows.
//
// Only rows with Status=true contribute. Within a contributing row, cells
// that are not numbers are treated as absent for that column. The reserved
// rows have Status=true iff at least one row contributed; their reason is
// always empty.
func Reserved(rows []measure.Row) (avg, sum measure.Row) {
	avg = measure.Row{Executable: measure.KeyAverage}
	sum = measure.Row{Executable: measure.KeySum}

	var totals [measure.NumFields]float64
	var counts [measure.NumFields]int
	contributors := 0
	for _, row := range rows {
		if row.Reserved() || !row.Status {
			continue
		}
		contributors++
		for i, v := range row.Values {
			if f, ok := v.Float(); ok {
				totals[i] += f
				counts[i]++
			}
		}
	}

	for i := 0; i < measure.NumFields; i++ {
		if counts[i] == 0 {
			avg.Values[i] = measure.Missing()
			sum.Values[i] = measure.Missing()
			continue
		}
		sum.Values[i] = measure.Number(totals[i])
		avg.Values[i] = measure.Number(totals[i] / float64(counts[i]))
	}
	avg.Status = contributors > 0
	sum.Status = contributors > 0
	return avg, sum
}

// RecomputeFile loads the store at path, recomputes its reserved rows and
// atomically writes it back.
func RecomputeFile(path string) (*store.Store, error) {
	s, err := store.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, err := Recompute(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := store.WriteFile(path, out); err != nil {
		return nil, err
	}
	return out, nil
}
