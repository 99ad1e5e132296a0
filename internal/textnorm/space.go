// Package textnorm holds the whitespace rules shared by the chunker, the
// searcher and the summarizers.
//
// RE2's \s is ASCII only. Text extracted from PDFs is full of no-break and
// other Unicode spaces, so every pattern that splits or collapses whitespace
// uses SpaceClass instead.
package textnorm

import (
	"strings"
	"unicode"
)

// SpaceClass is a regexp character class body matching tab, line feed,
// vertical tab, form feed, carriage return, every Zs space separator, the
// line and paragraph separators and the byte order mark.
const SpaceClass = `\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}`

// IsSpace reports whether r belongs to SpaceClass. Unlike unicode.IsSpace it
// excludes U+0085 and includes U+FEFF.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// Trim removes leading and trailing SpaceClass runes.
func Trim(s string) string {
	return strings.TrimFunc(s, IsSpace)
}
