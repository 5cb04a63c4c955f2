// Package document turns user input into the cleaned text the scorers expect:
// extraction from uploaded files and whitespace/case normalization.
package document

import "strings"

// Clean lowercases text and collapses every run of whitespace (including
// newlines and tabs) to a single space, trimming both ends.
func Clean(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
