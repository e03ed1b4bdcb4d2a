// Package highlight wraps accent- and case-insensitive matches of a query in
// <mark> elements inside a rendered document. Match spans come from
// textnorm.Mapping, the same mapping used for result previews.
package highlight

import (
	"strings"
	"unicode/utf8"

	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/extract"
	"github.com/tbourn/catecismo-search/internal/textnorm"
)

// Elements selects the content elements whose text is highlighted.
const Elements = ".paragrafo, .ponto-com-notas, p:not(.marcacao):not(.titulo), h1, h2, h3, h4, h5, h6, li"

// MarkTag is the element wrapped around each match.
const MarkTag = "mark"

// Highlighter marks query matches. The zero value uses a minimum term length
// of 2.
type Highlighter struct {
	MinTermRunes int
}

// New returns a Highlighter with the given minimum term length.
func New(minTermRunes int) *Highlighter {
	return &Highlighter{MinTermRunes: minTermRunes}
}

func (h *Highlighter) minTerm() int {
	if h == nil || h.MinTermRunes <= 0 {
		return 2
	}
	return h.MinTermRunes
}

// Apply marks every occurrence of rawTerm in the text nodes under root's
// content elements and returns the number of marks inserted. Footnote
// regions, script/style content and text already inside a mark are left
// alone, so a second call adds nothing. Text nodes without a match are not
// touched.
func (h *Highlighter) Apply(doc dom.Document, root dom.Node, rawTerm string) int {
	term := textnorm.Normalize(strings.TrimSpace(rawTerm))
	if root == nil || utf8.RuneCountInString(term) < h.minTerm() {
		return 0
	}

	// Nested content elements share text nodes; collect before mutating.
	seen := make(map[dom.Node]struct{})
	var targets []dom.Node
	var spans [][]textnorm.Span
	for _, el := range root.QueryAll(Elements) {
		if el.Closest(extract.FootnoteRegion) != nil {
			continue
		}
		walkText(el, func(n dom.Node) {
			if _, ok := seen[n]; ok {
				return
			}
			seen[n] = struct{}{}
			if sp := textnorm.NewMapping(n.Data()).FindAll(term); len(sp) > 0 {
				targets = append(targets, n)
				spans = append(spans, sp)
			}
		})
	}

	marks := 0
	for i, n := range targets {
		marks += split(doc, n, spans[i])
	}
	return marks
}

// walkText visits the text nodes under n in document order.
func walkText(n dom.Node, visit func(dom.Node)) {
	for _, c := range n.Children() {
		switch c.Kind() {
		case dom.TextNode:
			visit(c)
		case dom.ElementNode:
			switch c.Tag() {
			case "script", "style", MarkTag:
				continue
			}
			if c.Matches(extract.FootnoteRegion) {
				continue
			}
			walkText(c, visit)
		}
	}
}

// split replaces text node n with plain and marked pieces.
func split(doc dom.Document, n dom.Node, spans []textnorm.Span) int {
	text := n.Data()
	pieces := make([]dom.Node, 0, 2*len(spans)+1)
	last := 0
	for _, sp := range spans {
		if sp.Start > last {
			pieces = append(pieces, doc.CreateText(text[last:sp.Start]))
		}
		m := doc.CreateElement(MarkTag)
		m.AppendChild(doc.CreateText(text[sp.Start:sp.End]))
		pieces = append(pieces, m)
		last = sp.End
	}
	if last < len(text) {
		pieces = append(pieces, doc.CreateText(text[last:]))
	}
	n.ReplaceWith(pieces...)
	return len(spans)
}
