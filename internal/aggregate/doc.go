// Package aggregate derives the reserved AVERAGE and SUM rows of a store
// and the per-repository summary used by cross-repository reports.
//
// Aggregation only ever reads successful, non-reserved rows. Error and
// missing cells are skipped column by column, and a column with no numeric
// contributions yields the missing marker instead of 0.
package aggregate
