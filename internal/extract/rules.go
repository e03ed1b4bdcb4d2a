package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/catecismo-search/internal/dom"
)

// Markup conventions of the catechism documents.
const (
	// Candidates is the set of nodes visited, in document order.
	Candidates = "h1, h2, h3, h4, h5, h6, p, .paragrafo, .ponto-com-notas, section.capitulo, div.parte"

	// FootnoteRegion marks footnote-association subtrees, never indexed.
	FootnoteRegion = ".nota-associada"

	// FootnoteParts is removed from a clone before its text is taken.
	FootnoteParts = ".nota-associada, .ref-nota, sup.ref-nota"

	partMarker        = "h1.parte, div.parte, .marcacao.parte"
	chapterTitle      = "section.capitulo h2, section.capitulo h3, h2.capitulo-titulo"
	chapterContainer  = "section.capitulo"
	contentClasses    = ".paragrafo, .ponto-com-notas"
	nonContentClasses = ".marcacao, .titulo, .subtitulo"

	looseChapterMinRunes = 10
	headingMinRunes      = 15
)

var (
	ordinalPartRe   = regexp.MustCompile(`(?i)^(PRIMEIRA PARTE|SEGUNDA PARTE|TERCEIRA PARTE|QUARTA PARTE)`)
	partSplitRe     = regexp.MustCompile(`[:–-]`)
	chapterPrefixRe = regexp.MustCompile(`(?i)^Capítulo\s*[\wºª°]+\s*[:–-]?\s*`)
)

// upper uppercases with Portuguese rules. A Caser is stateful, so each call
// gets its own.
func upper(s string) string {
	return cases.Upper(language.BrazilianPortuguese).String(s)
}

func trimmedText(n dom.Node) string {
	return strings.TrimSpace(n.Text())
}

// isPartMarker reports whether n starts a new part: a part marker class, or an
// h1 whose text mentions "parte".
func isPartMarker(n dom.Node) bool {
	if n.Matches(partMarker) {
		return true
	}
	return n.Tag() == "h1" && strings.Contains(strings.ToLower(n.Text()), "parte")
}

// partLabel derives the part label from the marker text. The fallback chain
// is ordinal keyword, then a "parte X" split, then the document label.
func partLabel(text, documentLabel string) string {
	if m := ordinalPartRe.FindString(text); m != "" {
		return upper(m)
	}
	if strings.HasPrefix(strings.ToLower(text), "parte ") {
		head := partSplitRe.Split(text, 2)[0]
		return upper(strings.TrimSpace(head))
	}
	return upper(documentLabel)
}

// chapterTitleNode returns the node carrying a chapter title for n, or nil.
func chapterTitleNode(n dom.Node) dom.Node {
	switch {
	case n.Matches(chapterTitle):
		return n
	case n.Matches(chapterContainer):
		if hs := n.QueryAll("h2, h3"); len(hs) > 0 {
			return hs[0]
		}
		return nil
	case (n.Tag() == "h2" || n.Tag() == "h3") &&
		utf8.RuneCountInString(trimmedText(n)) > looseChapterMinRunes &&
		n.Closest(chapterContainer) == nil:
		return n
	}
	return nil
}

// chapterLabel strips a "Capítulo N:" prefix and cuts at the first colon.
func chapterLabel(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(chapterPrefixRe.ReplaceAllString(text, ""))
	head, _, _ := strings.Cut(text, ":")
	return strings.TrimSpace(head)
}

// isContent reports whether n is an indexable unit. title is the chapter
// title node found for n, if any; headings consumed as chapter titles are not
// content.
func isContent(n dom.Node, title dom.Node) bool {
	if n.Matches(contentClasses) {
		return true
	}
	switch n.Tag() {
	case "p":
		return !n.Matches(nonContentClasses)
	case "h2", "h3", "h4", "h5", "h6":
		return title == nil && utf8.RuneCountInString(trimmedText(n)) > headingMinRunes
	}
	return false
}
