// Package manifest loads the pipeline manifest.
//
// A manifest names the instrumentation tool, the results directory and the
// repositories to inspect, each with its discovery roots and Filter. It is
// written either in CUE (allocscope.cue), which is unified with the
// embedded #Manifest schema, or in YAML (allocscope.yaml). Both decode into
// the same Manifest and go through the same Validate.
//
// Relative paths in a manifest resolve against the manifest's directory.
// ALLOCSCOPE_TOOL, ALLOCSCOPE_RESULTS_DIR and ALLOCSCOPE_WORKERS override
// the corresponding manifest fields.
package manifest
