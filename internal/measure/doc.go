// Package measure defines the typed data model for allocation telemetry.
//
// A Row is one inspected executable (or one of the two reserved rows of a
// store). Every numeric cell is a Value, which is either a number, the
// missing marker, or the error marker. The zero Value is missing, so a cell
// that was never filled in can not be mistaken for a measured zero.
//
// # Columns
//
// The flat-file schema has 15 columns: the executable key, ten measurement
// fields reported by the instrumentation tool, executable size, elapsed
// time, status, and reason. Header returns them in file order.
//
// # Failure taxonomy
//
// A row with Status=false always carries one Reason from the fixed taxonomy
// (TOOL_STAGE1_TIMEOUT, TOOL_STAGE2_TIMEOUT, TOOL_STAGE1_PARSE_ERROR,
// TOOL_STAGE2_PARSE_ERROR, MALFORMED_OUTPUT, GENERIC_TOOL_ERROR).
package measure
