package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/roach88/allocscope/internal/aggregate"
	"github.com/roach88/allocscope/internal/store"
)

// Named is a store together with its repository name.
type Named struct {
	Name  string
	Store *store.Store
}

// Combine returns one summary per store, in the order given. Every store
// must already carry its reserved rows; a store that does not is an error,
// never silently skipped.
func Combine(stores []Named) ([]aggregate.Summary, error) {
	out := make([]aggregate.Summary, 0, len(stores))
	for _, n := range stores {
		s, err := aggregate.Summarize(n.Name, n.Store)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// EncodeSummaries writes the combined report as CSV.
func EncodeSummaries(w io.Writer, summaries []aggregate.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(aggregate.SummaryHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range summaries {
		if err := cw.Write(s.Record()); err != nil {
			return fmt.Errorf("write %s: %w", s.Repository, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
