// Package domain defines the value types shared by extraction, querying and
// relocation, plus the persistence models for the document-text cache and the
// build-run log.
package domain

import "strconv"

// Source is one configured corpus document. Sources are consumed in
// configuration order.
type Source struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Entry is one indexed text unit: a paragraph, a footnoted point or a
// qualifying heading. Entries are created by the extractor and never mutated
// afterwards.
//
// Fields:
//   - ID: sequence number, unique and increasing in extraction order.
//   - OriginalText: cleaned text with diacritics and the leading label kept,
//     whitespace collapsed to single spaces.
//   - SearchText: OriginalText minus its label prefix, folded (lowercase,
//     no diacritics). This is the substring-match target.
//   - SourceMarkup: the unit's serialized markup with footnote subtrees removed.
//   - DocumentURL / DocumentLabel: the corpus document the entry came from.
//   - PartLabel / ChapterLabel: nearest preceding structural markers, or "".
//   - Number: leading numeral, digits only.
//   - VisualPrefix: the label as displayed, e.g. "1619." or "1619.A".
type Entry struct {
	ID            int    `json:"id"`
	OriginalText  string `json:"original_text"`
	SearchText    string `json:"search_text"`
	SourceMarkup  string `json:"source_markup"`
	DocumentURL   string `json:"document_url"`
	DocumentLabel string `json:"document_label"`
	PartLabel     string `json:"part_label"`
	ChapterLabel  string `json:"chapter_label"`
	Number        string `json:"number,omitempty"`
	VisualPrefix  string `json:"visual_prefix,omitempty"`
}

// Anchor is the element id given to an entry's relocated node in a rendered
// document.
func (e Entry) Anchor() string { return "paragrafo-" + strconv.Itoa(e.ID) }
