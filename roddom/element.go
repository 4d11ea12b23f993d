package roddom

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/grabr-ai/grabr/dom"
)

// Page adapts a rod page to dom.Document and dom.Finder.
type Page struct {
	page   *rod.Page
	logger *slog.Logger
}

// URL returns the page URL, or "" when the target cannot be queried.
func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		p.logger.Debug("roddom: page info failed", "error", err)
		return ""
	}
	return info.URL
}

// Title returns the page title, or "".
func (p *Page) Title() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

// FindBySelector returns the first element matching the selector.
func (p *Page) FindBySelector(selector string) (dom.Element, error) {
	el, err := p.page.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("roddom: no element matches %q: %w", selector, err)
	}
	return element{pe: el, pg: p}, nil
}

// FindAllBySelector returns every element matching the selector.
func (p *Page) FindAllBySelector(selector string) ([]dom.Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("roddom: query %q: %w", selector, err)
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = element{pe: el, pg: p}
	}
	return out, nil
}

// Close closes the tab.
func (p *Page) Close() error {
	return p.page.Close()
}

// element wraps one live element handle. It is a comparable value so the
// selection machine's identity sets work with the handle a caller holds;
// node identity across re-minted handles goes through Same, which compares
// CDP backend node ids.
type element struct {
	pe *rod.Element
	pg *Page
}

func (e element) Tag() string {
	return e.evalString(`() => this.tagName.toLowerCase()`)
}

func (e element) ID() string {
	return e.Attr("id")
}

func (e element) Attr(name string) string {
	v, err := e.pe.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

func (e element) Classes() []string {
	raw := e.Attr("class")
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

func (e element) Text() string {
	t, err := e.pe.Text()
	if err != nil {
		return ""
	}
	return t
}

func (e element) Rect() dom.Rect {
	shape, err := e.pe.Shape()
	if err != nil {
		return dom.Rect{}
	}
	box := shape.Box()
	if box == nil {
		return dom.Rect{}
	}
	return dom.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}
}

func (e element) Parent() dom.Element {
	parent, err := e.pe.Parent()
	if err != nil || parent == nil {
		return nil
	}
	return element{pe: parent, pg: e.pg}
}

func (e element) Children() []dom.Element {
	els, err := e.pe.Elements(":scope > *")
	if err != nil {
		return nil
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = element{pe: el, pg: e.pg}
	}
	return out
}

func (e element) Connected() bool {
	res, err := e.pe.Eval(`() => this.isConnected`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (e element) ComputedStyle(prop string) string {
	res, err := e.pe.Eval(`p => getComputedStyle(this).getPropertyValue(p)`, prop)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(res.Value.Str())
}

// Same resolves both handles to their CDP backend node id. Parent and
// Children return a fresh *rod.Element per call, so handle equality alone
// would never match a re-queried node.
func (e element) Same(other dom.Element) bool {
	o, ok := other.(element)
	if !ok {
		return false
	}
	if e.pe == o.pe {
		return true
	}
	a, err := e.backendNodeID()
	if err != nil {
		return false
	}
	b, err := o.backendNodeID()
	if err != nil {
		return false
	}
	return a == b
}

func (e element) backendNodeID() (proto.DOMBackendNodeID, error) {
	node, err := e.pe.Describe(0, false)
	if err != nil {
		return 0, fmt.Errorf("roddom: describe node: %w", err)
	}
	return node.BackendNodeID, nil
}

func (e element) evalString(js string) string {
	res, err := e.pe.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
