package locator

import (
	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/extract"
	"github.com/tbourn/catecismo-search/internal/highlight"
	"github.com/tbourn/catecismo-search/internal/textnorm"
)

// Candidates selects the paragraph and heading nodes an entry can be
// relocated to.
const Candidates = ".paragrafo, .ponto-com-notas, p:not(.marcacao):not(.titulo), " +
	"h2:not(.marcacao), h3:not(.marcacao), h4:not(.marcacao), h5:not(.marcacao), h6:not(.marcacao)"

// Relocate returns the first candidate under root whose cleaned text equals
// text exactly (after whitespace collapsing on both sides), or nil.
func Relocate(root dom.Node, text string) dom.Node {
	want := textnorm.CollapseSpace(text)
	if want == "" {
		return nil
	}
	for _, n := range root.QueryAll(Candidates) {
		if CleanText(n) == want {
			return n
		}
	}
	return nil
}

// CleanText returns the text of n as it was at indexing time: highlight marks
// unwrapped, footnote subtrees removed, whitespace collapsed. n itself is not
// modified.
func CleanText(n dom.Node) string {
	cl := n.Clone()
	for _, m := range cl.QueryAll(highlight.MarkTag) {
		m.ReplaceWith(m.Children()...)
	}
	for _, fn := range cl.QueryAll(extract.FootnoteParts) {
		fn.Detach()
	}
	return textnorm.CollapseSpace(cl.Text())
}
