// Package grab assembles versioned element context bundles: structured,
// machine-readable snapshots of an on-screen element's DOM neighborhood,
// component-tree ownership, styling, likely behavior, and app/routing
// hints. The Engine orchestrates the capture; the facet types here are the
// stable output shape consumed by the prompt serializer.
package grab

import (
	"time"

	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/inspect"
	"github.com/grabr-ai/grabr/strategy"
)

// ContextVersion is the ElementContext schema version.
const ContextVersion = 2

// ElementContext is an immutable snapshot of one inspected element. Every
// mandatory facet is always present and internally consistent even when
// introspection fails entirely: facets degrade to empty/"none" values, the
// capture never aborts over a single facet.
type ElementContext struct {
	Version    int       `json:"version"`
	CapturedAt time.Time `json:"capturedAt"`

	Selection  SelectionInfo    `json:"selection"`
	DOM        dom.Neighborhood `json:"dom"`
	ReactDebug ReactDebugInfo   `json:"reactDebug"`
	Styling    StyleFrame       `json:"styling"`
	Behavior   BehaviorContext  `json:"behavior"`
	App        AppContext       `json:"app"`

	// React is the component-tree slice; nil when introspection is
	// unavailable or disabled.
	React *inspect.TreeSlice `json:"react,omitempty"`

	// Tests carries optional test-selector hints.
	Tests *TestHints `json:"tests,omitempty"`
}

// SelectionInfo identifies the selected element.
type SelectionInfo struct {
	Tag     string   `json:"tag"`
	Rect    dom.Rect `json:"rect"`
	DomID   string   `json:"domId,omitempty"`
	TestID  string   `json:"testId,omitempty"`
	Role    string   `json:"role,omitempty"`
	Classes []string `json:"classes,omitempty"`

	// ComponentName and ComponentSource describe the nearest inferred
	// component; empty when no frame slice is available.
	ComponentName   string `json:"componentName,omitempty"`
	ComponentSource string `json:"componentSource,omitempty"`

	// ServerComponentGuess is a best-effort flag: introspection is healthy
	// but no stateful owner exists anywhere in the stack.
	ServerComponentGuess bool `json:"serverComponentGuess,omitempty"`
}

// ReactDebugInfo reports introspection health for the capture. It is always
// present regardless of inspector mode.
type ReactDebugInfo struct {
	InspectorStatus inspect.Status    `json:"inspectorStatus"`
	Message         string            `json:"message,omitempty"`
	Mode            inspect.Mode      `json:"mode"`
	BuildMode       inspect.BuildMode `json:"buildMode,omitempty"`
}

// StyleFrame is a flat snapshot of computed layout/spacing/typography/color
// properties. A nil field means "could not be computed", not "unset".
type StyleFrame struct {
	Display      *string `json:"display,omitempty"`
	Position     *string `json:"position,omitempty"`
	Width        *string `json:"width,omitempty"`
	Height       *string `json:"height,omitempty"`
	Margin       *string `json:"margin,omitempty"`
	Padding      *string `json:"padding,omitempty"`
	FontSize     *string `json:"fontSize,omitempty"`
	FontFamily   *string `json:"fontFamily,omitempty"`
	FontWeight   *string `json:"fontWeight,omitempty"`
	LineHeight   *string `json:"lineHeight,omitempty"`
	Color        *string `json:"color,omitempty"`
	Background   *string `json:"background,omitempty"`
	BorderRadius *string `json:"borderRadius,omitempty"`
	Cursor       *string `json:"cursor,omitempty"`
	ZIndex       *string `json:"zIndex,omitempty"`

	// Clickable is true when the computed cursor is "pointer", the element
	// is a native button/link, or it carries a button/link role.
	Clickable bool `json:"clickable"`
}

// Behavior inference levels.
const (
	BehaviorNone         = "none"
	BehaviorPropNameOnly = "prop-name-only"
)

// HandlerGuess is one speculative event handler, guessed purely from an
// input name. Never a claim of certainty.
type HandlerGuess struct {
	Name  string `json:"name"`
	Event string `json:"event"`
}

// BehaviorContext is the behavior facet: prop-name-derived handler guesses
// deduplicated across the host and owner frames.
type BehaviorContext struct {
	Level    string         `json:"level"`
	Handlers []HandlerGuess `json:"handlers,omitempty"`
}

// AppContext carries URL/routing/framework hints. DataSources is never
// empty: with no matching heuristics it holds exactly one unknown hint.
type AppContext struct {
	URL    string `json:"url"`
	Path   string `json:"path"`
	Search string `json:"search,omitempty"`
	Hash   string `json:"hash,omitempty"`

	Framework    string               `json:"framework"`
	Route        *strategy.RouteGuess `json:"route,omitempty"`
	PageSource   string               `json:"pageSource,omitempty"`
	LayoutSource string               `json:"layoutSource,omitempty"`

	DataSources []strategy.DataSourceHint `json:"dataSources"`
}

// TestHints suggests stable test selectors for the element.
type TestHints struct {
	TestID         string `json:"testId,omitempty"`
	SuggestedQuery string `json:"suggestedQuery,omitempty"`
}

// Session is an ordered, non-empty collection of contexts captured in one
// interactive pass. Immutable after construction; never persisted beyond
// process memory.
type Session struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"createdAt"`
	URL         string            `json:"url"`
	Instruction string            `json:"instruction,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Contexts    []*ElementContext `json:"contexts"`
}
