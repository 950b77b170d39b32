package learning

import (
	"strings"
	"unicode"
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‛", "'", "′", "'",
	"“", "\"", "”", "\"", "‟", "\"", "″", "\"",
	"＇", "'", "＂", "\"",
)

// Normalize folds an English answer for comparison: lower case, unified quotes,
// single spaces, no trailing sentence punctuation.
func Normalize(s string) string {
	s = quoteReplacer.Replace(strings.ToLower(s))
	s = strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		switch r {
		case '.', '!', '?', '。', '！', '？', ' ':
			return true
		}
		return false
	})
	return s
}

// Matches reports whether text equals any accepted answer after normalization.
func Matches(text string, accepted []string) bool {
	got := Normalize(text)
	if got == "" {
		return false
	}
	for _, a := range accepted {
		if Normalize(a) == got {
			return true
		}
	}
	return false
}
