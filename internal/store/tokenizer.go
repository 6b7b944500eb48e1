package store

import (
	"regexp"
	"strings"
)

// termRegex matches runs of letters and digits; everything else separates.
var termRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokenize splits text into lowercase terms. It is deterministic and
// locale-independent, and must be identical at indexing time and query time:
// the fusion's correctness depends on a consistent vocabulary mapping.
// Empty input yields an empty sequence.
func Tokenize(text string) []string {
	words := termRegex.FindAllString(text, -1)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		tokens = append(tokens, strings.ToLower(word))
	}
	return tokens
}
