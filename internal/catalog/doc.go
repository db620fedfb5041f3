// Package catalog discovers candidate executables under a set of roots.
//
// Discovery is driven by a declarative Filter (accept, ignore and skip
// rules plus a recursion switch) and an Oracle that decides whether a file
// is an executable. Filters apply to file names; the ignore rule also
// prunes directories by name. Order follows the host directory listing and
// callers must not rely on it.
package catalog
