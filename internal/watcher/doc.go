// Package watcher scans the inbox on an interval and feeds settled
// recordings to the pipeline.
//
// A cycle lists candidate files, drops those whose path and fingerprint match
// a committed ledger entry, asks the stability tracker which files have stopped
// changing, and processes those oldest first. A failure on one file is logged
// and never stops the cycle. Polling is authoritative; fsnotify only wakes the
// loop early.
package watcher
