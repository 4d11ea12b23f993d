package grab

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/inspect"
	"github.com/grabr-ai/grabr/strategy"
)

// Engine builds ElementContext snapshots. It owns facet orchestration:
// health first, then the component slice, then the independent facets in a
// fixed order so later facets can read earlier output.
type Engine struct {
	cfg    RuntimeConfig
	doc    dom.Document
	insp   inspect.Inspector // nil = no capability
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine validates cfg eagerly and returns an Engine. insp may be nil;
// captures then report health "no-hook" and skip the component-tree facet.
func NewEngine(doc dom.Document, insp inspect.Inspector, cfg RuntimeConfig, opts ...EngineOption) (*Engine, error) {
	if cfg.IsUnset() {
		cfg = DefaultRuntimeConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Frameworks == nil {
		cfg.Frameworks = strategy.DefaultFrameworks()
	}
	if cfg.DataSources == nil {
		cfg.DataSources = strategy.DefaultDataSources()
	}
	e := &Engine{cfg: cfg, doc: doc, insp: insp, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the engine's validated runtime configuration.
func (e *Engine) Config() RuntimeConfig { return e.cfg }

// GetContext captures a full context bundle for el. Internal failures
// degrade individual facets instead of failing the capture; the only error
// paths are a nil element and required-mode introspection that is not
// usable.
func (e *Engine) GetContext(ctx context.Context, el dom.Element) (*ElementContext, error) {
	if el == nil {
		return nil, fmt.Errorf("grab: nil element")
	}

	health := inspect.Health(e.insp, el)
	if e.cfg.InspectorMode == inspect.ModeRequired && !health.Usable() {
		return nil, fmt.Errorf("grab: inspector required but %s for <%s>: %s",
			health.Status, el.Tag(), health.Message)
	}

	slice, frames := inspect.BuildSlice(ctx, e.insp, el, e.cfg.InspectorMode, e.cfg.MaxStackFrames, health)

	ec := &ElementContext{
		Version:    ContextVersion,
		CapturedAt: time.Now().UTC(),
		ReactDebug: ReactDebugInfo{
			InspectorStatus: health.Status,
			Message:         health.Message,
			Mode:            e.cfg.InspectorMode,
		},
		React: slice,
	}
	if e.insp != nil && health.Usable() {
		ec.ReactDebug.BuildMode = e.insp.DetectBuildMode()
	}

	ec.Selection = e.buildSelection(el, slice)
	ec.DOM = dom.Summarize(el)
	ec.Styling = buildStyling(el)
	ec.Behavior = e.buildBehavior(frames)
	ec.App = e.buildApp(slice)
	ec.Tests = buildTestHints(ec.Selection)

	e.logger.Debug("grab: captured context",
		"tag", el.Tag(), "id", el.ID(),
		"inspector", string(health.Status),
		"frames", len(frameNames(slice)))
	return ec, nil
}

func (e *Engine) buildSelection(el dom.Element, slice *inspect.TreeSlice) SelectionInfo {
	s := SelectionInfo{
		Tag:     el.Tag(),
		Rect:    el.Rect(),
		DomID:   el.ID(),
		TestID:  firstNonEmpty(el.Attr("data-testid"), el.Attr("data-test-id")),
		Role:    el.Attr("role"),
		Classes: el.Classes(),
	}
	if slice != nil {
		if nearest := nearestNamedFrame(slice); nearest != nil {
			s.ComponentName = nearest.Name
			if nearest.Source != nil {
				s.ComponentSource = nearest.Source.File
			}
		}
		s.ServerComponentGuess = slice.OwnerIndex == nil
	}
	return s
}

// nearestNamedFrame returns the first stack frame carrying a usable
// component name, skipping anonymous host frames.
func nearestNamedFrame(slice *inspect.TreeSlice) *inspect.FrameInfo {
	for i := range slice.Stack {
		f := &slice.Stack[i]
		if f.Name != "" && f.Kind != inspect.KindHost {
			return f
		}
	}
	for i := range slice.Stack {
		if slice.Stack[i].Name != "" {
			return &slice.Stack[i]
		}
	}
	return nil
}

func (e *Engine) buildApp(slice *inspect.TreeSlice) AppContext {
	app := AppContext{URL: e.doc.URL()}
	if u, err := url.Parse(app.URL); err == nil {
		app.Path = u.Path
		app.Search = u.RawQuery
		app.Hash = u.Fragment
	}

	ev := strategy.Evidence{URLPath: app.Path}
	if slice != nil {
		for _, f := range slice.Stack {
			if f.Source != nil {
				ev.StackSourceFiles = append(ev.StackSourceFiles, f.Source.File)
			}
		}
		if slice.OwnerIndex != nil {
			if src := slice.Stack[*slice.OwnerIndex].Source; src != nil {
				ev.OwnerSourceFile = src.File
			}
			for _, in := range slice.Inputs {
				ev.OwnerInputNames = append(ev.OwnerInputNames, in.Name)
			}
		}
	}

	fw := strategy.DetectFramework(ev, e.cfg.Frameworks)
	app.Framework = fw.Name
	app.PageSource = fw.PageSource
	app.LayoutSource = fw.LayoutSource
	app.Route = strategy.GuessRoute(app.Path, fw.Name)
	app.DataSources = strategy.DetectDataSources(ev, e.cfg.DataSources)
	return app
}

func buildTestHints(sel SelectionInfo) *TestHints {
	switch {
	case sel.TestID != "":
		return &TestHints{
			TestID:         sel.TestID,
			SuggestedQuery: fmt.Sprintf("getByTestId(%q)", sel.TestID),
		}
	case sel.Role != "":
		return &TestHints{
			SuggestedQuery: fmt.Sprintf("getByRole(%q)", sel.Role),
		}
	default:
		return nil
	}
}

func frameNames(slice *inspect.TreeSlice) []string {
	if slice == nil {
		return nil
	}
	names := make([]string, len(slice.Stack))
	for i, f := range slice.Stack {
		names[i] = f.Name
	}
	return names
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
