// Package htmldom implements the dom capability over a statically parsed
// HTML document (golang.org/x/net/html). It backs offline grabs of saved
// pages and serves as the deterministic DOM used by the test suites.
//
// Computed styles and geometry are not available in a parsed document, so
// ComputedStyle returns "" and Rect returns a zero rect; the extraction
// pipeline degrades those facets exactly as it would for any capability gap.
package htmldom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/grabr-ai/grabr/dom"
)

// Doc is a parsed HTML document.
type Doc struct {
	root  *html.Node
	url   string
	title string
}

// Parse reads and parses an HTML document. url becomes the document URL
// reported to the extraction pipeline.
func Parse(r io.Reader, url string) (*Doc, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldom: parse: %w", err)
	}
	d := &Doc{root: root, url: url}
	if t := findFirst(root, "title"); t != nil {
		d.title = strings.TrimSpace(collectText(t))
	}
	return d, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s, url string) (*Doc, error) {
	return Parse(strings.NewReader(s), url)
}

// URL implements dom.Document.
func (d *Doc) URL() string { return d.url }

// Title implements dom.Document.
func (d *Doc) Title() string { return d.title }

// Root returns the document's root element wrapped as a dom.Element.
func (d *Doc) Root() dom.Element {
	if n := findFirstElement(d.root); n != nil {
		return element{d: d, n: n}
	}
	return nil
}

// Wrap exposes an arbitrary node of this document as a dom.Element.
// Wrapping the same node twice yields equal values, so identity-based
// deduplication works across calls.
func (d *Doc) Wrap(n *html.Node) dom.Element {
	return element{d: d, n: n}
}

// element is a value wrapper; two wrappers are equal iff they wrap the same
// node of the same document.
type element struct {
	d *Doc
	n *html.Node
}

func (e element) Tag() string { return e.n.Data }

func (e element) ID() string { return attr(e.n, "id") }

func (e element) Attr(name string) string { return attr(e.n, name) }

func (e element) Classes() []string {
	return strings.Fields(attr(e.n, "class"))
}

func (e element) Text() string { return collectText(e.n) }

// Rect always reports zero geometry: a parsed document has no layout.
func (e element) Rect() dom.Rect { return dom.Rect{} }

func (e element) Parent() dom.Element {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return element{d: e.d, n: p}
}

func (e element) Children() []dom.Element {
	var out []dom.Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, element{d: e.d, n: c})
		}
	}
	return out
}

// Connected walks the parent chain; a node detached via html.Node.RemoveChild
// no longer reaches the document root.
func (e element) Connected() bool {
	for n := e.n; n != nil; n = n.Parent {
		if n == e.d.root {
			return true
		}
	}
	return false
}

// ComputedStyle is unavailable on parsed documents.
func (e element) ComputedStyle(string) string { return "" }

// Same compares the wrapped node pointers; wrappers here are already one
// value per node, so identity and equality coincide.
func (e element) Same(other dom.Element) bool {
	o, ok := other.(element)
	return ok && o.n == e.n && o.d == e.d
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func findFirst(root *html.Node, tag string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func findFirstElement(root *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}
