package textnorm

import (
	"sort"
	"strings"
)

// Span is a half-open byte range [Start, End) into an original string.
type Span struct {
	Start int
	End   int
}

// runeSpan records where one original rune sits in the original string and
// where its folded expansion sits in the folded string.
type runeSpan struct {
	origStart, origEnd int
	foldStart, foldEnd int
}

// Mapping pairs an original string with its folded form and answers "which
// original text produced this folded range". It is the single place where
// normalized offsets are translated back, so preview snippets and in-document
// highlights always agree on what was matched.
type Mapping struct {
	folded string
	runes  []runeSpan
}

// NewMapping folds original and records the per-rune offset table.
func NewMapping(original string) *Mapping {
	m := &Mapping{runes: make([]runeSpan, 0, len(original))}
	var b strings.Builder
	b.Grow(len(original))
	for i, r := range original {
		f := foldRune(r)
		start := b.Len()
		b.WriteString(f)
		m.runes = append(m.runes, runeSpan{
			origStart: i,
			origEnd:   i + len(string(r)),
			foldStart: start,
			foldEnd:   b.Len(),
		})
	}
	m.folded = b.String()
	return m
}

// Span maps the folded range [normStart, normStart+normLen) onto the original
// text. The start is the first original rune whose expansion covers
// normStart; the end is the rune whose expansion covers the last folded byte,
// extended over any trailing runes that fold to nothing (combining marks), so
// an accent written as a separate code point stays inside the span.
func (m *Mapping) Span(normStart, normLen int) (Span, bool) {
	if normLen <= 0 || normStart < 0 || normStart+normLen > len(m.folded) {
		return Span{}, false
	}
	normEnd := normStart + normLen
	n := len(m.runes)

	first := sort.Search(n, func(k int) bool { return m.runes[k].foldEnd > normStart })
	last := sort.Search(n, func(k int) bool { return m.runes[k].foldEnd >= normEnd })
	if first >= n || last >= n || last < first {
		return Span{}, false
	}

	end := m.runes[last].origEnd
	for k := last + 1; k < n && m.runes[k].foldStart == m.runes[k].foldEnd; k++ {
		end = m.runes[k].origEnd
	}
	return Span{Start: m.runes[first].origStart, End: end}, true
}

// Find locates the first occurrence of an already-normalized term and returns
// its span in the original text.
func (m *Mapping) Find(term string) (Span, bool) {
	if term == "" {
		return Span{}, false
	}
	pos := strings.Index(m.folded, term)
	if pos < 0 {
		return Span{}, false
	}
	return m.Span(pos, len(term))
}

// FindAll returns the original spans of every non-overlapping occurrence of
// an already-normalized term, in text order.
func (m *Mapping) FindAll(term string) []Span {
	if term == "" {
		return nil
	}
	var out []Span
	from := 0
	for from <= len(m.folded)-len(term) {
		idx := strings.Index(m.folded[from:], term)
		if idx < 0 {
			break
		}
		pos := from + idx
		if sp, ok := m.Span(pos, len(term)); ok {
			// Spans must stay ordered and disjoint even when expansions overlap.
			if len(out) == 0 || sp.Start >= out[len(out)-1].End {
				out = append(out, sp)
			}
		}
		from = pos + len(term)
	}
	return out
}
