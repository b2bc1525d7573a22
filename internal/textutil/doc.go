// Package textutil provides small text helpers shared by routing and
// notebook code: keyword ranking over a transcript, whitespace folding and
// rune-safe truncation.
package textutil
