// Package pipeline runs the full inspection-and-aggregation flow:
//
//	discover -> inspect -> store -> recompute -> report
//
// Each manifest repository becomes one result store in the results
// directory. Aggregation of a store starts only after every inspection
// for it has completed; a cancelled run writes the rows it has without
// reserved rows and skips the cross-repository reports.
package pipeline
