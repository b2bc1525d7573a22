// Package contentid derives the identity quill uses for every recording: the
// lower-case hex SHA-256 of the file's bytes. Two files with identical bytes
// share an id regardless of name or location.
//
// Fingerprint is the cheap companion (size plus nanosecond mtime) that the
// watch loop compares against the ledger before paying for a full hash.
package contentid
