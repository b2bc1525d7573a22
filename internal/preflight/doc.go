// Package preflight provides readiness checks for the directories, files
// and binaries quill depends on.
//
// These checks run in two contexts:
//   - "quill watch" runs RunAll at startup and logs failures as warnings.
//   - "quill doctor" prints every result, together with deps.CheckBinaries.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
