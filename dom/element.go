// Package dom defines the read-only DOM capability consumed by the
// extraction pipeline, plus pure summarizer functions over it: compact node
// summaries, ancestor paths, sibling/child statistics, and CSS selector
// candidates.
//
// The package never mutates the inspected document. Implementations live
// elsewhere (htmldom for parsed static HTML, roddom for a live CDP page).
package dom

// Rect is an element bounding box in viewport pixels. A detached element
// reports a zero-sized rect.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Zero reports whether the rect carries no geometry.
func (r Rect) Zero() bool {
	return r.X == 0 && r.Y == 0 && r.Width == 0 && r.Height == 0
}

// Element is the read-only view of a single DOM element. Accessors degrade
// to zero values when the underlying capability cannot answer (for example
// computed styles on a statically parsed document).
type Element interface {
	// Tag returns the lowercase tag name.
	Tag() string

	// ID returns the id attribute, or "".
	ID() string

	// Attr returns the named attribute value, or "".
	Attr(name string) string

	// Classes returns the class list in document order.
	Classes() []string

	// Text returns the element's text content.
	Text() string

	// Rect returns the bounding box in viewport pixels.
	Rect() Rect

	// Parent returns the parent element, or nil at the root.
	Parent() Element

	// Children returns the element children in document order.
	Children() []Element

	// Connected reports whether the element is attached to its document.
	Connected() bool

	// ComputedStyle returns the computed value of a CSS property, or ""
	// when the capability cannot compute styles.
	ComputedStyle(prop string) string

	// Same reports whether other refers to the same underlying DOM node.
	// Adapters may mint a fresh wrapper on every tree access, so wrapper
	// equality is not node identity; summarizers compare through Same.
	Same(other Element) bool
}

// Document is the read-only view of the page owning the inspected elements.
type Document interface {
	// URL returns the document URL.
	URL() string

	// Title returns the document title, or "".
	Title() string
}

// Finder locates elements by CSS selector. Adapters implement it so
// non-interactive callers (CLI, MCP tools) can address elements without a
// hover loop.
type Finder interface {
	// FindBySelector returns the first element matching the selector, or an
	// error when nothing matches.
	FindBySelector(selector string) (Element, error)

	// FindAllBySelector returns every element matching the selector.
	FindAllBySelector(selector string) ([]Element, error)
}
