package dom

import (
	"sort"
	"strconv"
	"strings"
)

// MaxChildSamples bounds how many child summaries are kept verbatim.
const MaxChildSamples = 5

// NodeSummary is a compact description of a single element.
type NodeSummary struct {
	Tag     string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// SiblingSummary describes an element's position among its element siblings.
type SiblingSummary struct {
	Index int          `json:"index"` // 0-based position among element siblings
	Total int          `json:"total"`
	Prev  *NodeSummary `json:"prev,omitempty"`
	Next  *NodeSummary `json:"next,omitempty"`
}

// ChildSummary aggregates an element's children: total count, per-tag
// counts, and up to MaxChildSamples sample summaries.
type ChildSummary struct {
	Count   int            `json:"count"`
	ByTag   map[string]int `json:"byTag,omitempty"`
	Samples []NodeSummary  `json:"samples,omitempty"`
}

// Neighborhood is the full DOM facet for one element.
type Neighborhood struct {
	Snippet   string         `json:"snippet"`
	Ancestors []NodeSummary  `json:"ancestors,omitempty"` // nearest-first, ≤ MaxAncestorDepth
	Siblings  SiblingSummary `json:"siblings"`
	Children  ChildSummary   `json:"children"`
	Selectors SelectorSet    `json:"selectors"`
	Path      string         `json:"path"` // root-to-leaf selector path
}

// SummarizeNode builds a NodeSummary with a truncated text snippet.
func SummarizeNode(el Element) NodeSummary {
	return NodeSummary{
		Tag:     el.Tag(),
		ID:      el.ID(),
		Classes: el.Classes(),
		Text:    Truncate(el.Text(), SnippetLimit),
	}
}

// Snippet renders an element as a one-line pseudo-HTML snippet with its
// identifying attributes and truncated text.
func Snippet(el Element) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(el.Tag())
	if id := el.ID(); id != "" {
		b.WriteString(` id="` + id + `"`)
	}
	if classes := el.Classes(); len(classes) > 0 {
		b.WriteString(` class="` + strings.Join(classes, " ") + `"`)
	}
	if tid := testID(el); tid != "" {
		b.WriteString(` data-testid="` + tid + `"`)
	}
	b.WriteByte('>')
	b.WriteString(Truncate(el.Text(), SnippetLimit))
	b.WriteString("</" + el.Tag() + ">")
	return b.String()
}

// Ancestors returns summaries of up to MaxAncestorDepth ancestors,
// nearest-first.
func Ancestors(el Element) []NodeSummary {
	var out []NodeSummary
	p := el.Parent()
	for i := 0; i < MaxAncestorDepth && p != nil; i++ {
		out = append(out, SummarizeNode(p))
		p = p.Parent()
	}
	return out
}

// Siblings summarizes the element's position among its element siblings.
func Siblings(el Element) SiblingSummary {
	p := el.Parent()
	if p == nil {
		return SiblingSummary{Index: 0, Total: 1}
	}
	sibs := p.Children()
	s := SiblingSummary{Total: len(sibs)}
	for i, sib := range sibs {
		if sib.Same(el) {
			s.Index = i
			if i > 0 {
				prev := SummarizeNode(sibs[i-1])
				s.Prev = &prev
			}
			if i+1 < len(sibs) {
				next := SummarizeNode(sibs[i+1])
				s.Next = &next
			}
			break
		}
	}
	return s
}

// Children aggregates the element's children.
func Children(el Element) ChildSummary {
	kids := el.Children()
	c := ChildSummary{Count: len(kids)}
	if len(kids) == 0 {
		return c
	}
	c.ByTag = make(map[string]int)
	for _, k := range kids {
		c.ByTag[k.Tag()]++
	}
	for i := 0; i < len(kids) && i < MaxChildSamples; i++ {
		c.Samples = append(c.Samples, SummarizeNode(kids[i]))
	}
	return c
}

// Summarize builds the complete DOM neighborhood for one element.
func Summarize(el Element) Neighborhood {
	return Neighborhood{
		Snippet:   Snippet(el),
		Ancestors: Ancestors(el),
		Siblings:  Siblings(el),
		Children:  Children(el),
		Selectors: Selectors(el),
		Path:      AncestorPathSelector(el),
	}
}

// TagCounts returns the child tag histogram as deterministic "tag:count"
// pairs sorted by tag. Useful for stable text output.
func (c ChildSummary) TagCounts() []string {
	if len(c.ByTag) == 0 {
		return nil
	}
	tags := make([]string, 0, len(c.ByTag))
	for t := range c.ByTag {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t + ":" + strconv.Itoa(c.ByTag[t])
	}
	return out
}
