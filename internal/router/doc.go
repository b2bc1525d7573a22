// Package router decides which notebook a transcript belongs to and labels
// the kind of thinking it contains.
//
// The pipeline depends only on the Classifier interface. Heuristic is the
// built-in strategy: a date-prefixed filename wins, then an explicit
// "TOPIC:" line, then "this is about ..." style phrases, then the most
// frequent non-stopword keywords, and finally a timestamped fallback.
package router
