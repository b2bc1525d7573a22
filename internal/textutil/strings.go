package textutil

import "strings"

// CollapseSpace folds every whitespace run into a single space and trims.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most maxChars runes of s with trailing spaces removed.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) > maxChars {
		runes = runes[:maxChars]
	}
	return strings.TrimRight(string(runes), " \t")
}

// Ternary is a generic conditional helper that returns a if cond is true, b otherwise.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
