package segment

import (
	"strings"
	"unicode"
)

// HeadingClassifier decides whether a raw page line starts a new section.
type HeadingClassifier interface {
	IsHeading(line string) bool
}

// HeadingFunc adapts a plain function to HeadingClassifier.
type HeadingFunc func(line string) bool

func (f HeadingFunc) IsHeading(line string) bool { return f(line) }

// DefaultHeadings flags a line as a heading when any of these hold:
//   - the trimmed line is entirely upper-case
//   - the line contains a colon
//   - the trimmed line starts with a digit 1-9 ("1. Introduction")
//
// Leading "0" is not a heading, and multi-digit numbering is not checked
// beyond its first digit.
type DefaultHeadings struct{}

func (DefaultHeadings) IsHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if isUpper(trimmed) {
		return true
	}
	if strings.Contains(line, ":") {
		return true
	}
	return trimmed != "" && trimmed[0] >= '1' && trimmed[0] <= '9'
}

// isUpper reports whether s has at least one cased rune and no lower-case
// or title-case runes.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}
