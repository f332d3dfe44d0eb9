package wordchain

import (
	"strings"
	"unicode/utf8"
)

// NormalizeWord trims surrounding whitespace and lower-cases the word.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// FirstRune returns the first character of word, or utf8.RuneError if empty.
func FirstRune(word string) rune {
	r, _ := utf8.DecodeRuneInString(word)
	return r
}

// LastRune returns the last character of word, or utf8.RuneError if empty.
func LastRune(word string) rune {
	r, _ := utf8.DecodeLastRuneInString(word)
	return r
}

// Chains reports whether next may follow prev under the chaining rule.
func Chains(prev, next string) bool {
	if prev == "" || next == "" {
		return false
	}
	return FirstRune(next) == LastRune(prev)
}
