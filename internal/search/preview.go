package search

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/textnorm"
)

const ellipsis = "..."

// PreviewSource returns the entry text with its visual prefix and the
// whitespace after it removed.
func PreviewSource(ent domain.Entry) string {
	if ent.VisualPrefix == "" || !strings.HasPrefix(ent.OriginalText, ent.VisualPrefix) {
		return ent.OriginalText
	}
	return strings.TrimLeftFunc(ent.OriginalText[len(ent.VisualPrefix):], unicode.IsSpace)
}

// Preview renders a bounded excerpt of the entry around the first match of an
// already-folded term. About a third of the window precedes the match; an
// ellipsis marks each side the window does not reach. The visual prefix is
// shown before the excerpt. Every occurrence of the term inside the excerpt is
// wrapped in <mark>, with the original accents and case preserved.
func Preview(ent domain.Entry, term string, window int) string {
	source := PreviewSource(ent)
	runes := []rune(source)

	matchAt := 0
	if sp, ok := textnorm.NewMapping(source).Find(term); ok {
		matchAt = utf8.RuneCountInString(source[:sp.Start])
	}
	start := matchAt - window/3
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(runes) {
		end = len(runes)
	}
	if start > end {
		start = end
	}

	var b strings.Builder
	if ent.VisualPrefix != "" {
		b.WriteString(Mark(ent.VisualPrefix, term))
		b.WriteByte(' ')
	}
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(Mark(string(runes[start:end]), term))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return strings.TrimRight(b.String(), " ")
}

// Mark HTML-escapes text and wraps every occurrence of the folded term in
// <mark>. Spans come from textnorm.Mapping, so the marked text always folds
// to term.
func Mark(text, term string) string {
	spans := textnorm.NewMapping(text).FindAll(term)
	if len(spans) == 0 {
		return html.EscapeString(text)
	}
	var b strings.Builder
	last := 0
	for _, sp := range spans {
		b.WriteString(html.EscapeString(text[last:sp.Start]))
		b.WriteString("<mark>")
		b.WriteString(html.EscapeString(text[sp.Start:sp.End]))
		b.WriteString("</mark>")
		last = sp.End
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}
