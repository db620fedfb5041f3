// Package report builds cross-repository tables from many result stores.
//
// Combine produces one summary row per repository from recomputed stores.
// Flatten concatenates the measurement rows of every store into a single
// table tagged with the repository (and optionally a group label), with
// successful rows first so failures collect at the bottom for triage.
package report
