package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tbourn/catecismo-search/internal/textnorm"
)

// Prefix is the leading label detected on a unit's text.
type Prefix struct {
	Number string // digits only
	Visual string // label as displayed, e.g. "1619." or "1619.A"
	Rest   string // text after the label and the spaces following it
}

// SplitPrefix detects a leading label: a run of ASCII digits, optionally a
// period, and after the period optionally one uppercase letter that is not
// the start of a word. The label is valid when a period was consumed, or when
// the digits are followed by whitespace or end the text. Without a valid label
// Rest is the whole text and ok is false.
func SplitPrefix(text string) (p Prefix, ok bool) {
	i := 0
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == 0 {
		return Prefix{Rest: text}, false
	}
	number := text[:i]
	j := i
	dot := false
	if j < len(text) && text[j] == '.' {
		dot = true
		j++
		if r, size := utf8.DecodeRuneInString(text[j:]); size > 0 && unicode.IsUpper(r) {
			next, _ := utf8.DecodeRuneInString(text[j+size:])
			if j+size == len(text) || !unicode.IsLetter(next) {
				j += size
			}
		}
	}
	if !dot && j < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[j:]); !unicode.IsSpace(r) {
			return Prefix{Rest: text}, false
		}
	}
	rest := strings.TrimLeftFunc(text[j:], unicode.IsSpace)
	return Prefix{Number: number, Visual: text[:j], Rest: rest}, true
}

// Standalone reports whether the whole unit is its label.
func (p Prefix) Standalone() bool { return p.Number != "" && p.Rest == "" }

// DedupKey returns the per-build deduplication key for a unit. Long post-label
// text is keyed on its own; short text is qualified by the numeral so short or
// number-only units with different numerals stay distinct.
func DedupKey(p Prefix, minText int) string {
	post := textnorm.Normalize(p.Rest)
	if utf8.RuneCountInString(post) > minText {
		return post
	}
	return p.Number + "|" + post
}
