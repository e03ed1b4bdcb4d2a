// Package textnorm provides the accent- and case-insensitive text folding used
// by extraction, querying and highlighting, plus the mapping that translates a
// match found in folded text back to the corresponding span of the original
// (accented) text.
//
// Folding is defined rune by rune: every original rune is lowercased,
// canonically decomposed (NFD) and stripped of nonspacing marks. Because the
// folded form of a string is exactly the concatenation of the folded forms of
// its runes, offsets in folded text can always be traced back to original
// runes without ambiguity.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripMarks decomposes s (NFD) and removes every combining mark, keeping
// letter case. Empty input yields an empty string.
func StripMarks(s string) string {
	if s == "" {
		return ""
	}
	// transform.Chain keeps internal state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize folds s for comparison: lowercase, diacritics removed.
//
//	Normalize("Cânon") == Normalize("canon") == "canon"
//
// Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteString(foldRune(r))
	}
	return b.String()
}

// foldRune returns the folded expansion of a single rune; it may be empty
// (standalone combining marks) or longer than one rune.
func foldRune(r rune) string {
	lr := unicode.ToLower(r)
	if lr < utf8.RuneSelf {
		return string(lr)
	}
	return StripMarks(string(lr))
}

// CollapseSpace trims s and replaces each run of whitespace with one space.
func CollapseSpace(s string) string {
	fields := strings.FieldsFunc(s, isSpace)
	return strings.Join(fields, " ")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
