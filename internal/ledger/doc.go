// Package ledger persists one processing record per distinct recording,
// keyed by content id, in SQLite.
//
// The Store is the only writer of ledger entries and enforces the legal
// status transitions: in_progress (leased), processed and failed. Leases
// carry a start time so a crashed worker's claim can be taken over once it is
// older than the configured TTL. Every mutation is a single statement that
// commits before returning, so separate quill processes can share one
// database file.
//
// Entries are never deleted. Schema changes bump the version in schema.go;
// users move the old database aside to adopt the new schema.
package ledger
