package aggregate

import (
	"errors"
	"fmt"

	"github.com/roach88/allocscope/internal/measure"
	"github.com/roach88/allocscope/internal/store"
)

// ErrNotAggregated is returned when a summary is requested from a store
// that has not been recomputed.
var ErrNotAggregated = errors.New("store has no AVERAGE/SUM rows")

// Summary is the one-row-per-repository view used by combined reports.
type Summary struct {
	Repository            string        `json:"repository_name"`
	ExecutableCount       int           `json:"executable_count"`
	AvgHeapAllocsFraction measure.Value `json:"avg_heap_allocs_fraction"`
	AvgStackAllocs        measure.Value `json:"avg_stack_allocs"`
	SumStackAllocs        measure.Value `json:"sum_stack_allocs"`
	AvgHeapAllocs         measure.Value `json:"avg_heap_allocs"`
	SumHeapAllocs         measure.Value `json:"sum_heap_allocs"`
}

// SummaryHeader is the header of the combined report.
func SummaryHeader() []string {
	return []string{
		"repository_name",
		"executable_count",
		"avg_heap_allocs_fraction",
		"avg_stack_allocs",
		"sum_stack_allocs",
		"avg_heap_allocs",
		"sum_heap_allocs",
	}
}

// Record renders the summary in SummaryHeader order.
func (s Summary) Record() []string {
	return []string{
		s.Repository,
		fmt.Sprint(s.ExecutableCount),
		s.AvgHeapAllocsFraction.String(),
		s.AvgStackAllocs.String(),
		s.SumStackAllocs.String(),
		s.AvgHeapAllocs.String(),
		s.SumHeapAllocs.String(),
	}
}

// Summarize reads the reserved rows of an already recomputed store.
// ExecutableCount counts every measurement row, failed ones included.
func Summarize(name string, s *store.Store) (Summary, error) {
	avg, ok := s.Reserved(measure.KeyAverage)
	if !ok {
		return Summary{}, fmt.Errorf("%s: %w", name, ErrNotAggregated)
	}
	sum, ok := s.Reserved(measure.KeySum)
	if !ok {
		return Summary{}, fmt.Errorf("%s: %w", name, ErrNotAggregated)
	}
	return Summary{
		Repository:            name,
		ExecutableCount:       s.Len(),
		AvgHeapAllocsFraction: avg.Get(measure.HeapAllocsFraction),
		AvgStackAllocs:        avg.Get(measure.StackAllocs),
		SumStackAllocs:        sum.Get(measure.StackAllocs),
		AvgHeapAllocs:         avg.Get(measure.HeapAllocs),
		SumHeapAllocs:         sum.Get(measure.HeapAllocs),
	}, nil
}
