package dom

import (
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser parses HTML5 with golang.org/x/net/html and exposes the result
// through goquery selections.
type HTMLParser struct{}

// NewHTMLParser returns the default HTML parser.
func NewHTMLParser() HTMLParser { return HTMLParser{} }

// Parse implements Parser. The HTML5 algorithm always synthesizes <body>, so
// Body never returns nil for a successfully parsed document.
func (HTMLParser) Parse(r io.Reader) (Document, error) {
	gd, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	body := gd.Find("body").First()
	if body.Length() == 0 {
		return &htmlDocument{body: gd.Nodes[0]}, nil
	}
	return &htmlDocument{body: body.Nodes[0]}, nil
}

// ParseHTML is a convenience wrapper around HTMLParser.Parse.
func ParseHTML(s string) (Document, error) {
	return HTMLParser{}.Parse(strings.NewReader(s))
}

type htmlDocument struct {
	body *html.Node
}

func (d *htmlDocument) Body() Node { return htmlNode{d.body} }

func (d *htmlDocument) CreateElement(tag string) Node {
	tag = strings.ToLower(tag)
	return htmlNode{&html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}}
}

func (d *htmlDocument) CreateText(data string) Node {
	return htmlNode{&html.Node{Type: html.TextNode, Data: data}}
}

// ---------------------------------------------------------------------------
// Selector cache

var (
	matchersMu sync.Mutex
	matchers   = map[string]goquery.Matcher{}
)

// noMatch is used for selectors that fail to parse.
type noMatch struct{}

func (noMatch) Match(*html.Node) bool            { return false }
func (noMatch) MatchAll(*html.Node) []*html.Node { return nil }
func (noMatch) Filter([]*html.Node) []*html.Node { return nil }

func compile(selector string) goquery.Matcher {
	matchersMu.Lock()
	defer matchersMu.Unlock()
	if m, ok := matchers[selector]; ok {
		return m
	}
	var m goquery.Matcher = noMatch{}
	if sel, err := cascadia.Compile(selector); err == nil {
		m = sel
	}
	matchers[selector] = m
	return m
}

// ---------------------------------------------------------------------------
// Node adapter

// htmlNode is comparable: two wrappers of the same *html.Node are equal, so
// nodes can be used as map keys.
type htmlNode struct {
	n *html.Node
}

func wrap(n *html.Node) Node {
	if n == nil {
		return nil
	}
	return htmlNode{n}
}

func unwrap(n Node) *html.Node {
	if h, ok := n.(htmlNode); ok {
		return h.n
	}
	return nil
}

func (h htmlNode) sel() *goquery.Selection {
	return goquery.NewDocumentFromNode(h.n).Selection
}

func (h htmlNode) Kind() Kind {
	switch h.n.Type {
	case html.ElementNode:
		return ElementNode
	case html.TextNode:
		return TextNode
	default:
		return OtherNode
	}
}

func (h htmlNode) Tag() string {
	if h.n.Type != html.ElementNode {
		return ""
	}
	return h.n.Data
}

func (h htmlNode) Data() string {
	if h.n.Type != html.TextNode {
		return ""
	}
	return h.n.Data
}

func (h htmlNode) Text() string {
	if h.n.Type == html.TextNode {
		return h.n.Data
	}
	return h.sel().Text()
}

func (h htmlNode) Attr(name string) string { return h.sel().AttrOr(name, "") }

func (h htmlNode) SetAttr(name, value string) {
	if h.n.Type == html.ElementNode {
		h.sel().SetAttr(name, value)
	}
}

func (h htmlNode) AddClass(class string) {
	if h.n.Type == html.ElementNode {
		h.sel().AddClass(class)
	}
}

func (h htmlNode) Matches(selector string) bool {
	if h.n.Type != html.ElementNode {
		return false
	}
	return compile(selector).Match(h.n)
}

func (h htmlNode) Closest(selector string) Node {
	start := h.n
	if start.Type != html.ElementNode {
		start = start.Parent
	}
	if start == nil {
		return nil
	}
	found := goquery.NewDocumentFromNode(start).ClosestMatcher(compile(selector))
	if found.Length() == 0 {
		return nil
	}
	return wrap(found.Nodes[0])
}

func (h htmlNode) QueryAll(selector string) []Node {
	found := h.sel().FindMatcher(compile(selector))
	out := make([]Node, 0, found.Length())
	for _, n := range found.Nodes {
		out = append(out, htmlNode{n})
	}
	return out
}

func (h htmlNode) Children() []Node {
	var out []Node
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, htmlNode{c})
	}
	return out
}

func (h htmlNode) AppendChild(child Node) {
	c := unwrap(child)
	if c == nil {
		return
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	h.n.AppendChild(c)
}

func (h htmlNode) ReplaceWith(nodes ...Node) {
	parent := h.n.Parent
	if parent == nil {
		return
	}
	for _, nn := range nodes {
		c := unwrap(nn)
		if c == nil || c == h.n {
			continue
		}
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		parent.InsertBefore(c, h.n)
	}
	parent.RemoveChild(h.n)
}

func (h htmlNode) Detach() { h.sel().Remove() }

func (h htmlNode) Clone() Node {
	cl := h.sel().Clone()
	if cl.Length() == 0 {
		return nil
	}
	return htmlNode{cl.Nodes[0]}
}

func (h htmlNode) OuterHTML() string {
	s, err := goquery.OuterHtml(h.sel())
	if err != nil {
		return ""
	}
	return s
}
