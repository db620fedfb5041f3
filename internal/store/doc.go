// Package store provides flat-file storage for per-repository inspection results.
//
// A Store is an immutable, ordered mapping from executable key to
// measure.Row, plus the two reserved rows AVERAGE and SUM. Reserved rows
// are never authored by hand: they are attached with WithReserved by the
// aggregator and always written as the last two records.
//
// # File format
//
// Comma-separated values with a 15-column header (measure.Header), one
// record per inspected executable in discovery order, followed by the
// reserved rows when present. Numbers are written as the shortest exact
// decimal, so a file written by this package round-trips byte for byte.
//
// # Critical Patterns
//
//   - Loading is strict: a header that does not match, a record whose
//     field count differs from the header, an unknown reason, or a duplicate
//     executable key aborts the load with a ParseError.
//   - Writes are atomic: content goes to a temporary file in the same
//     directory which is then renamed over the target, so a crash never
//     leaves reserved rows describing a subset of the other rows.
package store
