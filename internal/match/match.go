// Package match provides the case-insensitive keyword matching shared by the
// safety gate, the query classifier and the relevance filter.
package match

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\w+`)

// ContainsAny reports whether s contains any of the keywords as a
// case-insensitive substring.
func ContainsAny(s string, keywords []string) bool {
	_, ok := First(s, keywords)
	return ok
}

// First returns the first keyword (in list order) that occurs in s as a
// case-insensitive substring.
func First(s string, keywords []string) (string, bool) {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// Count returns how many of the keywords occur in s as case-insensitive
// substrings. Each keyword counts at most once.
func Count(s string, keywords []string) int {
	lower := strings.ToLower(s)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

// Tokens splits s into lower-cased word tokens (\w+ runs).
func Tokens(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// HasToken reports whether any whitespace-separated token of s equals one of
// the given words (case-insensitive).
func HasToken(s string, words []string) bool {
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}
