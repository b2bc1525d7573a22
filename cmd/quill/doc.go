// Package main hosts the quill CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging and the ledger into the
// pipeline and watcher packages: "watch" runs the inbox loop, "process"
// ingests one file, "rerun-annotation" retries referee commentary, and
// "status", "ledger" and "doctor" inspect state. Keep this package lean; new
// behavior belongs in internal packages first.
package main
