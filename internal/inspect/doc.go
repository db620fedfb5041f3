// Package inspect runs the external instrumentation tool against executables.
//
// The tool contract is:
//
//	tool <absolute-target-path>
//
// On success the tool prints exactly one comma-separated record of
// measure.ToolFieldCount fields and exits 0. Exit codes 1-4 signal stage
// timeouts and stage parse errors; any other non-zero code is a generic
// failure. The Runner turns every outcome into exactly one measure.Row and
// never aborts a batch because one target failed.
//
// # Concurrency
//
// Targets are inspected by up to Options.Workers goroutines. Each target
// gets at most one subprocess, rows are stored by input index, and
// Inspect returns only after every started inspection has finished.
// Cancelling the context stops new inspections from being issued; those
// already running are allowed to finish.
package inspect
