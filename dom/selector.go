package dom

import (
	"strconv"
	"strings"
)

// MaxAncestorDepth bounds how many ancestor levels contribute to summaries
// and ancestor-path selectors.
const MaxAncestorDepth = 4

// SelectorSet holds every selector candidate computed for an element plus
// the one the caller should prefer.
type SelectorSet struct {
	Preferred  string   `json:"preferred"`
	Candidates []string `json:"candidates"`
}

// Selectors computes CSS selector candidates for el. The preferred selector
// is the first match in this order:
//
//  1. a non-empty id without spaces       → "#id"
//  2. a data-testid / data-test-id value  → attribute selector
//  3. a non-empty class list              → tag with every class chained
//  4. positional fallback                 → "tag:nth-of-type(n)"
//
// Ids and class tokens carrying CSS metacharacters (utility classes like
// "hover:bg-blue" or "w-1/2") are skipped rather than escaped, so every
// candidate stays valid CSS. All produced candidates are returned so callers
// can fall back when the preferred one stops matching.
func Selectors(el Element) SelectorSet {
	var candidates []string

	if id := el.ID(); cssToken(id) {
		candidates = append(candidates, "#"+id)
	}
	if tid := testID(el); tid != "" && !strings.ContainsAny(tid, `"\`) {
		attr := "data-testid"
		if el.Attr("data-testid") == "" {
			attr = "data-test-id"
		}
		candidates = append(candidates, `[`+attr+`="`+tid+`"]`)
	}
	if classes := cssTokens(el.Classes()); len(classes) > 0 {
		candidates = append(candidates, el.Tag()+"."+strings.Join(classes, "."))
	}
	candidates = append(candidates, nthOfType(el))

	return SelectorSet{Preferred: candidates[0], Candidates: candidates}
}

// AncestorPathSelector builds a root-to-leaf selector path for el, one
// preferred segment per level, joined with " > ". At most MaxAncestorDepth
// ancestors participate.
func AncestorPathSelector(el Element) string {
	segments := []string{Selectors(el).Preferred}
	p := el.Parent()
	for i := 0; i < MaxAncestorDepth && p != nil; i++ {
		segments = append(segments, Selectors(p).Preferred)
		p = p.Parent()
	}
	// Collected leaf-first; emit root-to-leaf.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, " > ")
}

// nthOfType builds the positional fallback selector. n counts only same-tag
// preceding element siblings and is 1-indexed.
func nthOfType(el Element) string {
	n := 1
	if p := el.Parent(); p != nil {
		for _, sib := range p.Children() {
			if sib.Same(el) {
				break
			}
			if sib.Tag() == el.Tag() {
				n++
			}
		}
	}
	return el.Tag() + ":nth-of-type(" + strconv.Itoa(n) + ")"
}

func testID(el Element) string {
	if v := el.Attr("data-testid"); v != "" {
		return v
	}
	return el.Attr("data-test-id")
}

// cssToken reports whether s can be embedded in a selector as an id or
// class name without escaping: ASCII letters, digits, '-' and '_' only.
func cssToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// cssTokens filters a class list down to the tokens usable in a selector.
func cssTokens(classes []string) []string {
	out := classes[:0:0]
	for _, c := range classes {
		if cssToken(c) {
			out = append(out, c)
		}
	}
	return out
}
