package htmldom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/grabr-ai/grabr/dom"
)

// FindBySelector implements dom.Finder. It supports the simple selector
// subset used by the generated candidates:
//
//   - tag:            "button", "div"
//   - #id:            "#save-btn"
//   - .class:         ".primary", "button.primary.large"
//   - [attr] and [attr=val]:  `[data-testid="save"]`
//   - descendant combinator:  "form button.primary"
func (d *Doc) FindBySelector(selector string) (dom.Element, error) {
	matches := d.queryAll(selector)
	if len(matches) == 0 {
		return nil, fmt.Errorf("htmldom: no element matches %q", selector)
	}
	return element{d: d, n: matches[0]}, nil
}

// FindAllBySelector implements dom.Finder.
func (d *Doc) FindAllBySelector(selector string) ([]dom.Element, error) {
	matches := d.queryAll(selector)
	out := make([]dom.Element, len(matches))
	for i, n := range matches {
		out[i] = element{d: d, n: n}
	}
	return out, nil
}

func (d *Doc) queryAll(selector string) []*html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil
	}
	matches := matchSimple(d.root, parts[0])
	for i := 1; i < len(parts); i++ {
		var next []*html.Node
		for _, parent := range matches {
			next = append(next, matchSimple(parent, parts[i])...)
		}
		matches = next
	}
	return matches
}

func matchSimple(root *html.Node, sel string) []*html.Node {
	m := parseSimple(sel)
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n != root && matchesNode(n, m) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	nth     int // 1-indexed :nth-of-type, 0 = unset
}

func parseSimple(sel string) simpleSelector {
	var s simpleSelector

	// :nth-of-type(n)
	if idx := strings.Index(sel, ":nth-of-type("); idx >= 0 {
		num := strings.TrimSuffix(sel[idx+len(":nth-of-type("):], ")")
		fmt.Sscanf(num, "%d", &s.nth)
		sel = sel[:idx]
	}

	// [attr] or [attr=val]
	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(attrPart, '='); eq >= 0 {
			s.attrKey = attrPart[:eq]
			s.attrVal = strings.Trim(attrPart[eq+1:], `"'`)
		} else {
			s.attrKey = attrPart
		}
	}

	// #id
	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}

	// .class chains
	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.classes = strings.Split(sel[idx+1:], ".")
		sel = sel[:idx]
	}

	s.tag = sel
	return s
}

func matchesNode(n *html.Node, s simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range s.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	if s.attrKey != "" {
		if s.attrVal != "" {
			if attr(n, s.attrKey) != s.attrVal {
				return false
			}
		} else if !hasAttr(n, s.attrKey) {
			return false
		}
	}
	if s.nth > 0 && nthOfTypeIndex(n) != s.nth {
		return false
	}
	return true
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// nthOfTypeIndex counts same-tag preceding element siblings, 1-indexed.
func nthOfTypeIndex(n *html.Node) int {
	idx := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			idx++
		}
	}
	return idx
}
