// Package pipeline turns one settled recording into notebook content.
//
// Each file moves through hashing, leasing, transcription, routing, the
// notebook append, optional referee commentary and archival, and finally a
// ledger commit. Only transcription failures are reported to callers as
// per-file failures; commentary and archival degrade with warnings. Ledger
// and document I/O errors are infrastructure errors and are returned as-is.
package pipeline
