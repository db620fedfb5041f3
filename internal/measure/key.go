package measure

import "golang.org/x/text/unicode/norm"

// Reserved row keys.
const (
	KeyAverage = "AVERAGE"
	KeySum     = "SUM"
)

// IsReserved reports whether key names a reserved row.
func IsReserved(key string) bool {
	return key == KeyAverage || key == KeySum
}

// CanonicalKey returns the NFC form of an executable key.
//
// Keys are never rewritten: two paths that differ only in composed vs
// decomposed accents are two files on disk. The canonical form is used to
// detect such pairs so they can be reported.
func CanonicalKey(key string) string {
	return norm.NFC.String(key)
}

// EquivalentKeys reports whether a and b are distinct keys that spell the
// same name under Unicode canonical equivalence.
func EquivalentKeys(a, b string) bool {
	return a != b && CanonicalKey(a) == CanonicalKey(b)
}
