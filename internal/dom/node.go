// Package dom provides a small tree-query abstraction over a rendered page so
// that extraction logic does not depend on a specific markup API.
package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is a read-only view of one element in a page snapshot.
type Node interface {
	// Tag returns the lowercase element name.
	Tag() string
	// Text returns the concatenated text content of the node and its descendants.
	Text() string
	// Attr returns the value of an attribute and whether it is present.
	Attr(name string) (string, bool)
	// Find returns descendants matching a CSS selector in document order.
	Find(selector string) []Node
	// Children returns the direct element children.
	Children() []Node
	// Key identifies the underlying element; two Nodes for the same element share a key.
	Key() any
}

type selectionNode struct {
	sel *goquery.Selection
}

// FromSelection wraps the first element of a goquery selection.
func FromSelection(sel *goquery.Selection) Node {
	return selectionNode{sel: sel.First()}
}

// Parse parses an HTML snapshot and returns its document root.
func Parse(htmlContent string) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}
	return selectionNode{sel: doc.Selection}, nil
}

func (n selectionNode) Tag() string {
	return goquery.NodeName(n.sel)
}

func (n selectionNode) Text() string {
	return n.sel.Text()
}

func (n selectionNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n selectionNode) Find(selector string) []Node {
	return wrapAll(n.sel.Find(selector))
}

func (n selectionNode) Children() []Node {
	return wrapAll(n.sel.Children())
}

func (n selectionNode) Key() any {
	if len(n.sel.Nodes) == 0 {
		return (*html.Node)(nil)
	}
	return n.sel.Nodes[0]
}

func wrapAll(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		nodes = append(nodes, selectionNode{sel: s})
	})
	return nodes
}

// FindFirst returns the first descendant matching selector, or nil.
func FindFirst(n Node, selector string) Node {
	found := n.Find(selector)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// Walk visits every descendant of n depth-first in document order. Returning
// false from visit stops the descent into that node's children.
func Walk(n Node, visit func(Node) bool) {
	for _, child := range n.Children() {
		if visit(child) {
			Walk(child, visit)
		}
	}
}

// FindAll collects every descendant of n for which match returns true.
func FindAll(n Node, match func(Node) bool) []Node {
	var out []Node
	Walk(n, func(child Node) bool {
		if match(child) {
			out = append(out, child)
		}
		return true
	})
	return out
}

// TrimmedText returns the node text with surrounding whitespace removed.
func TrimmedText(n Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text())
}

// AttrOr returns the attribute value or fallback when it is missing or empty.
func AttrOr(n Node, name, fallback string) string {
	if v, ok := n.Attr(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
