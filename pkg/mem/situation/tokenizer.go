package situation

import (
	"regexp"
	"strings"
)

// wordPattern matches maximal runs of word characters (letters, digits,
// underscore). Everything else is a separator.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lowercases text and splits it into word tokens.
//
// Indexing and querying must use this exact tokenization; if they ever
// diverge, lexical scores become meaningless.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}
