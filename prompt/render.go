package prompt

import (
	"fmt"
	"math"
	"strings"

	"github.com/grabr-ai/grabr/grab"
)

// Option adjusts rendering. The defaults omit absent values and empty
// containers; both can be kept per call site.
type Option func(*options)

type options struct {
	keepNulls bool
	keepEmpty bool
}

// WithNulls keeps absent values as explicit "key: null" lines.
func WithNulls() Option {
	return func(o *options) { o.keepNulls = true }
}

// WithEmpty keeps empty object/array values instead of omitting them.
func WithEmpty() Option {
	return func(o *options) { o.keepEmpty = true }
}

// field is one "key: value" line inside a section.
type field struct {
	key string
	val any
}

// section is one named, delimited block.
type section struct {
	name   string
	fields []field
}

// Render serializes a single context bundle. Output is deterministic for a
// given input; the checksum at the opening tag always equals the one at the
// closing tag.
func Render(ec *grab.ElementContext, opts ...Option) string {
	o := applyOptions(opts)
	selID := SelectionID(ec)
	sum := checksum(canonical(ec))

	var b strings.Builder
	fmt.Fprintf(&b, "<ai_grab_selection v=\"%d\" sel_id=\"%s\" checksum=\"%s\">\n",
		ec.Version, selID, sum)
	for _, s := range contextSections(ec) {
		writeSection(&b, s, o)
	}
	fmt.Fprintf(&b, "<ai_grab_selection_end sel_id=\"%s\" checksum=\"%s\"/>\n", selID, sum)
	return b.String()
}

// RenderSession serializes a whole session: a meta section plus an
// elements section holding each child context's full rendered block,
// index-tagged in list order.
func RenderSession(s *grab.Session, opts ...Option) string {
	o := applyOptions(opts)
	sum := checksum(canonical(s))

	var b strings.Builder
	fmt.Fprintf(&b, "<ai_grab_session id=\"%s\" checksum=\"%s\">\n", s.ID, sum)
	writeSection(&b, section{name: "meta", fields: []field{
		{"id", s.ID},
		{"created_at", s.CreatedAt},
		{"url", s.URL},
		{"instruction", s.Instruction},
		{"summary", s.Summary},
		{"element_count", len(s.Contexts)},
	}}, o)

	b.WriteString("[section:elements]\n")
	for i, ec := range s.Contexts {
		fmt.Fprintf(&b, "[element:%d]\n", i)
		b.WriteString(Render(ec, opts...))
		fmt.Fprintf(&b, "[end:element:%d]\n", i)
	}
	b.WriteString("[end:elements]\n")

	fmt.Fprintf(&b, "<ai_grab_session_end id=\"%s\" checksum=\"%s\"/>\n", s.ID, sum)
	return b.String()
}

// SelectionID derives the short identity hash for a context. Only
// identity-bearing fields participate (dom id, test id, tag, component
// name, source file, rounded position), so re-captures of the same visual
// element tend to reuse the same id even when unrelated facets change.
func SelectionID(ec *grab.ElementContext) string {
	identity := struct {
		DomID  string `json:"domId"`
		TestID string `json:"testId"`
		Tag    string `json:"tag"`
		Comp   string `json:"component"`
		Source string `json:"source"`
		X      int    `json:"x"`
		Y      int    `json:"y"`
	}{
		DomID:  ec.Selection.DomID,
		TestID: ec.Selection.TestID,
		Tag:    ec.Selection.Tag,
		Comp:   ec.Selection.ComponentName,
		Source: ec.Selection.ComponentSource,
		X:      roundTo(ec.Selection.Rect.X, 10),
		Y:      roundTo(ec.Selection.Rect.Y, 10),
	}
	return shortHash(canonical(identity))
}

func roundTo(v float64, step int) int {
	return int(math.Round(v/float64(step))) * step
}

func contextSections(ec *grab.ElementContext) []section {
	sections := []section{
		{name: "meta", fields: []field{
			{"version", ec.Version},
			{"captured_at", ec.CapturedAt},
		}},
		{name: "selection", fields: []field{
			{"tag", ec.Selection.Tag},
			{"rect", ec.Selection.Rect},
			{"dom_id", ec.Selection.DomID},
			{"test_id", ec.Selection.TestID},
			{"role", ec.Selection.Role},
			{"classes", ec.Selection.Classes},
			{"component", ec.Selection.ComponentName},
			{"component_source", ec.Selection.ComponentSource},
			{"server_component_guess", ec.Selection.ServerComponentGuess},
		}},
		{name: "dom", fields: []field{
			{"snippet", ec.DOM.Snippet},
			{"selectors", ec.DOM.Selectors},
			{"path", ec.DOM.Path},
			{"ancestors", ec.DOM.Ancestors},
			{"siblings", ec.DOM.Siblings},
			{"children", ec.DOM.Children},
		}},
	}

	react := section{name: "react", fields: []field{
		{"inspector_status", string(ec.ReactDebug.InspectorStatus)},
		{"inspector_message", ec.ReactDebug.Message},
		{"mode", string(ec.ReactDebug.Mode)},
		{"build_mode", string(ec.ReactDebug.BuildMode)},
	}}
	if ec.React != nil {
		react.fields = append(react.fields,
			field{"stack", ec.React.Stack},
			field{"owner_index", ec.React.OwnerIndex},
			field{"inputs", ec.React.Inputs},
			field{"state_slots", ec.React.StateSlots},
			field{"subscribed", ec.React.Subscribed},
		)
	} else {
		react.fields = append(react.fields, field{"available", false})
	}
	sections = append(sections, react)

	sections = append(sections,
		section{name: "styling", fields: []field{
			{"display", ec.Styling.Display},
			{"position", ec.Styling.Position},
			{"width", ec.Styling.Width},
			{"height", ec.Styling.Height},
			{"margin", ec.Styling.Margin},
			{"padding", ec.Styling.Padding},
			{"font_size", ec.Styling.FontSize},
			{"font_family", ec.Styling.FontFamily},
			{"font_weight", ec.Styling.FontWeight},
			{"line_height", ec.Styling.LineHeight},
			{"color", ec.Styling.Color},
			{"background", ec.Styling.Background},
			{"border_radius", ec.Styling.BorderRadius},
			{"cursor", ec.Styling.Cursor},
			{"z_index", ec.Styling.ZIndex},
			{"clickable", ec.Styling.Clickable},
		}},
		section{name: "behavior", fields: []field{
			{"level", ec.Behavior.Level},
			{"handlers", ec.Behavior.Handlers},
		}},
		section{name: "app", fields: []field{
			{"url", ec.App.URL},
			{"path", ec.App.Path},
			{"search", ec.App.Search},
			{"hash", ec.App.Hash},
			{"framework", ec.App.Framework},
			{"route", ec.App.Route},
			{"page_source", ec.App.PageSource},
			{"layout_source", ec.App.LayoutSource},
			{"data_sources", ec.App.DataSources},
		}},
	)

	if ec.Tests != nil {
		sections = append(sections, section{name: "tests", fields: []field{
			{"test_id", ec.Tests.TestID},
			{"suggested_query", ec.Tests.SuggestedQuery},
		}})
	}
	return sections
}

func writeSection(b *strings.Builder, s section, o options) {
	fmt.Fprintf(b, "[section:%s]\n", s.name)
	for _, f := range s.fields {
		rendered, present := renderValue(f.val, o)
		if !present {
			if !o.keepNulls {
				continue
			}
			rendered = "null"
		}
		fmt.Fprintf(b, "%s: %s\n", f.key, rendered)
	}
	fmt.Fprintf(b, "[end:%s]\n", s.name)
}

// renderValue canonicalizes one field value. The second result is false
// when the value is absent (nil, empty string) or an empty container not
// explicitly kept.
func renderValue(v any, o options) (string, bool) {
	c := canonical(v)
	switch c {
	case "null", `""`:
		return c, false
	case "[]", "{}":
		if !o.keepEmpty {
			return c, false
		}
	}
	return c, true
}

func applyOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
