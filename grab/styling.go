package grab

import "github.com/grabr-ai/grabr/dom"

// styleProps maps StyleFrame fields to CSS property names, in capture
// order.
var styleProps = []string{
	"display", "position", "width", "height",
	"margin", "padding",
	"font-size", "font-family", "font-weight", "line-height",
	"color", "background-color", "border-radius", "cursor", "z-index",
}

// buildStyling snapshots computed styles. An empty computed value means the
// capability could not answer, which maps to a nil field.
func buildStyling(el dom.Element) StyleFrame {
	vals := make(map[string]*string, len(styleProps))
	for _, p := range styleProps {
		if v := el.ComputedStyle(p); v != "" {
			vals[p] = &v
		}
	}

	f := StyleFrame{
		Display:      vals["display"],
		Position:     vals["position"],
		Width:        vals["width"],
		Height:       vals["height"],
		Margin:       vals["margin"],
		Padding:      vals["padding"],
		FontSize:     vals["font-size"],
		FontFamily:   vals["font-family"],
		FontWeight:   vals["font-weight"],
		LineHeight:   vals["line-height"],
		Color:        vals["color"],
		Background:   vals["background-color"],
		BorderRadius: vals["border-radius"],
		Cursor:       vals["cursor"],
		ZIndex:       vals["z-index"],
	}
	f.Clickable = isClickable(el, f.Cursor)
	return f
}

// isClickable: computed cursor is pointer, or the element is a native
// button/link, or it carries an explicit button/link role.
func isClickable(el dom.Element, cursor *string) bool {
	if cursor != nil && *cursor == "pointer" {
		return true
	}
	switch el.Tag() {
	case "button", "a":
		return true
	}
	switch el.Attr("role") {
	case "button", "link":
		return true
	}
	return false
}
