package search

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/catecismo-search/internal/domain"
	"github.com/tbourn/catecismo-search/internal/textnorm"
)

// ErrTermTooShort is returned for queries below the minimum length. The index
// is not consulted.
var ErrTermTooShort = errors.New("search term too short")

// unknownLocation is shown when an entry has neither a part nor a document label.
const unknownLocation = "Contexto Desconhecido"

// Result is one matching entry with its display data.
type Result struct {
	Entry    domain.Entry `json:"entry"`
	Location string       `json:"location"`
	// Preview is HTML: escaped text with the matches wrapped in <mark>.
	Preview string `json:"preview"`
}

// Response is the outcome of a query. Count equals len(Results).
type Response struct {
	Term       string   `json:"term"`
	FilterTerm string   `json:"filter_term"`
	Count      int      `json:"count"`
	Results    []Result `json:"results"`
}

// Engine answers substring queries over an Index.
type Engine struct {
	cfg config
}

// NewEngine returns an Engine. Only the query options (minimum term length,
// preview window) are relevant here.
func NewEngine(opts ...Option) *Engine {
	return &Engine{cfg: newConfig(opts)}
}

// MinTermRunes returns the configured minimum query length.
func (e *Engine) MinTermRunes() int { return e.cfg.minTermRunes }

// FilterTerm trims and folds a raw query. ok is false when the query is too
// short, before or after folding.
func (e *Engine) FilterTerm(raw string) (term string, ok bool) {
	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) < e.cfg.minTermRunes {
		return "", false
	}
	term = textnorm.Normalize(raw)
	if utf8.RuneCountInString(term) < e.cfg.minTermRunes {
		return "", false
	}
	return term, true
}

// Search filters ix by the folded term and returns matches in corpus order.
// An entry matches when its search text contains the term, or when the term
// falls inside its numeral.
func (e *Engine) Search(ix *Index, raw string) (Response, error) {
	term, ok := e.FilterTerm(raw)
	if !ok {
		return Response{Term: strings.TrimSpace(raw)}, ErrTermTooShort
	}
	resp := Response{Term: strings.TrimSpace(raw), FilterTerm: term, Results: []Result{}}
	for _, ent := range ix.Entries() {
		if !Matches(ent, term) {
			continue
		}
		resp.Results = append(resp.Results, Result{
			Entry:    ent,
			Location: Location(ent),
			Preview:  Preview(ent, term, e.cfg.previewWindow),
		})
	}
	resp.Count = len(resp.Results)
	return resp, nil
}

// Matches reports whether entry matches an already-folded term.
func Matches(ent domain.Entry, term string) bool {
	if strings.Contains(ent.SearchText, term) {
		return true
	}
	return ent.Number != "" && strings.Contains(ent.Number, term)
}

// Location returns the part label, or the uppercased document label when no
// part marker preceded the entry.
func Location(ent domain.Entry) string {
	if strings.TrimSpace(ent.PartLabel) != "" {
		return ent.PartLabel
	}
	label := ent.DocumentLabel
	if strings.TrimSpace(label) == "" {
		label = unknownLocation
	}
	return cases.Upper(language.BrazilianPortuguese).String(label)
}
