// Package dom defines the small tree-of-nodes surface the extractor, the
// highlighter and the document locator work against. Nothing outside this
// package depends on a parsing library's API shape; the HTML adapter in
// html.go is one implementation.
package dom

import "io"

// Kind classifies a node.
type Kind int

const (
	// OtherNode covers comments, doctypes and the document root.
	OtherNode Kind = iota
	// ElementNode is a tag with attributes and children.
	ElementNode
	// TextNode carries character data.
	TextNode
)

// Node is one node of a parsed document.
//
// Selector arguments use CSS selector syntax (tag, .class, descendant
// combinators, :not(), comma-separated groups). An invalid selector matches
// nothing.
type Node interface {
	Kind() Kind
	// Tag returns the lowercase element name, or "" for non-elements.
	Tag() string
	// Data returns the character data of a text node.
	Data() string
	// Text returns the concatenated text of the node and its descendants.
	Text() string
	Attr(name string) string
	SetAttr(name, value string)
	AddClass(class string)

	// Matches reports whether the node itself matches selector.
	Matches(selector string) bool
	// Closest returns the nearest ancestor-or-self matching selector, or nil.
	Closest(selector string) Node
	// QueryAll returns matching descendants (not the node itself) in
	// document order.
	QueryAll(selector string) []Node

	Children() []Node
	AppendChild(child Node)
	// ReplaceWith substitutes the node by nodes, in order.
	ReplaceWith(nodes ...Node)
	// Detach removes the node from its parent.
	Detach()
	// Clone returns a deep, detached copy.
	Clone() Node

	OuterHTML() string
}

// Document is a parsed document plus node factories.
type Document interface {
	Body() Node
	CreateElement(tag string) Node
	CreateText(data string) Node
}

// Parser turns raw markup into a Document.
type Parser interface {
	Parse(r io.Reader) (Document, error)
}
