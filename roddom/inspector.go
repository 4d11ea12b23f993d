package roddom

import (
	"context"
	"encoding/json"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/inspect"
)

//go:embed inspector.js
var inspectorJS []byte

// DefaultEvalTimeout bounds every introspection evaluation so a hung page
// surfaces as a per-call failure instead of stalling a capture worker.
const DefaultEvalTimeout = 2 * time.Second

// Inspector bridges inspect.Inspector to the page's devtools global hook
// through an injected registry: fiber handles stay in the page, numeric
// frame ids cross the CDP boundary.
type Inspector struct {
	page    *rod.Page
	logger  *slog.Logger
	timeout time.Duration
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithEvalTimeout overrides the per-evaluation deadline.
func WithEvalTimeout(d time.Duration) InspectorOption {
	return func(i *Inspector) { i.timeout = d }
}

// NewInspector injects the introspection bridge into the page. Injection
// is idempotent; re-running it on navigation is safe.
func NewInspector(p *Page, opts ...InspectorOption) (*Inspector, error) {
	i := &Inspector{page: p.page, logger: p.logger, timeout: DefaultEvalTimeout}
	for _, o := range opts {
		o(i)
	}
	if _, err := i.page.Eval(string(inspectorJS)); err != nil {
		return nil, fmt.Errorf("roddom: inject inspector: %w", err)
	}
	return i, nil
}

// frame is a numeric handle into the page-side registry.
type frame struct {
	id   int
	name string
	kind inspect.FrameKind
}

func (f *frame) Name() string            { return f.name }
func (f *frame) Kind() inspect.FrameKind { return f.kind }

// frameDesc mirrors the JS descriptor shape.
type frameDesc struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (d frameDesc) frame() *frame {
	return &frame{id: d.ID, name: d.Name, kind: inspect.FrameKind(d.Kind)}
}

// Installed implements inspect.Inspector.
func (i *Inspector) Installed() bool {
	var ok bool
	if err := i.eval(&ok, `() => window.__grabrInspector.installed()`); err != nil {
		i.logger.Debug("roddom: installed check failed", "error", err)
		return false
	}
	return ok
}

// Active implements inspect.Inspector.
func (i *Inspector) Active() bool {
	var ok bool
	if err := i.eval(&ok, `() => window.__grabrInspector.active()`); err != nil {
		return false
	}
	return ok
}

// ResolveOwningFrame implements inspect.Inspector. It requires an element
// produced by this package's Page.
func (i *Inspector) ResolveOwningFrame(el dom.Element) (inspect.Frame, error) {
	re, ok := el.(element)
	if !ok {
		return nil, fmt.Errorf("roddom: element %T is not a live page element", el)
	}

	ctx, cancel := i.callCtx()
	defer cancel()

	res, err := re.pe.Context(ctx).Eval(`() => window.__grabrInspector.resolve(this)`)
	if err != nil {
		return nil, fmt.Errorf("roddom: resolve owning frame for <%s>: %w", re.Tag(), err)
	}
	if res.Value.Nil() {
		return nil, nil
	}
	var d frameDesc
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &d); err != nil {
		return nil, fmt.Errorf("roddom: decode frame descriptor: %w", err)
	}
	return d.frame(), nil
}

// AncestorFrames implements inspect.Inspector.
func (i *Inspector) AncestorFrames(f inspect.Frame) []inspect.Frame {
	rf, ok := f.(*frame)
	if !ok {
		return nil
	}
	var descs []frameDesc
	if err := i.eval(&descs, `id => window.__grabrInspector.ancestors(id)`, rf.id); err != nil {
		i.logger.Debug("roddom: ancestor walk failed", "frame", rf.name, "error", err)
		return nil
	}
	out := make([]inspect.Frame, len(descs))
	for n, d := range descs {
		out[n] = d.frame()
	}
	return out
}

// WalkInputs implements inspect.Inspector.
func (i *Inspector) WalkInputs(f inspect.Frame, visit func(name string, value any) bool) {
	rf, ok := f.(*frame)
	if !ok {
		return
	}
	var inputs []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if err := i.eval(&inputs, `id => window.__grabrInspector.inputs(id)`, rf.id); err != nil {
		i.logger.Debug("roddom: input walk failed", "frame", rf.name, "error", err)
		return
	}
	for _, in := range inputs {
		if !visit(in.Name, in.Value) {
			return
		}
	}
}

// WalkStateSlots implements inspect.Inspector.
func (i *Inspector) WalkStateSlots(f inspect.Frame, visit func(value any) bool) {
	i.walkValues(f, `id => window.__grabrInspector.stateSlots(id)`, visit)
}

// WalkSubscribedValues implements inspect.Inspector.
func (i *Inspector) WalkSubscribedValues(f inspect.Frame, visit func(value any) bool) {
	i.walkValues(f, `id => window.__grabrInspector.subscribed(id)`, visit)
}

func (i *Inspector) walkValues(f inspect.Frame, js string, visit func(value any) bool) {
	rf, ok := f.(*frame)
	if !ok {
		return
	}
	var values []any
	if err := i.eval(&values, js, rf.id); err != nil {
		i.logger.Debug("roddom: value walk failed", "frame", rf.name, "error", err)
		return
	}
	for _, v := range values {
		if !visit(v) {
			return
		}
	}
}

// DetectBuildMode implements inspect.Inspector.
func (i *Inspector) DetectBuildMode() inspect.BuildMode {
	var mode string
	if err := i.eval(&mode, `() => window.__grabrInspector.buildMode()`); err != nil {
		return inspect.BuildUnknown
	}
	switch inspect.BuildMode(mode) {
	case inspect.BuildDevelopment, inspect.BuildProduction:
		return inspect.BuildMode(mode)
	}
	return inspect.BuildUnknown
}

// ResolveSourceLocation implements inspect.Inspector. The caller's ctx
// bounds the evaluation in addition to the inspector's own deadline.
func (i *Inspector) ResolveSourceLocation(ctx context.Context, f inspect.Frame) (*inspect.SourceLocation, error) {
	rf, ok := f.(*frame)
	if !ok {
		return nil, fmt.Errorf("roddom: frame %T is not a live page frame", f)
	}

	evalCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	res, err := i.page.Context(evalCtx).Eval(`id => window.__grabrInspector.source(id)`, rf.id)
	if err != nil {
		return nil, fmt.Errorf("roddom: resolve source for %s: %w", rf.name, err)
	}
	if res.Value.Nil() {
		return nil, nil
	}
	var src inspect.SourceLocation
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &src); err != nil {
		return nil, fmt.Errorf("roddom: decode source location: %w", err)
	}
	return &src, nil
}

// eval runs one deadline-bounded page evaluation and decodes the result.
func (i *Inspector) eval(out any, js string, args ...any) error {
	ctx, cancel := i.callCtx()
	defer cancel()

	res, err := i.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(res.Value.JSON("", "")), out)
}

func (i *Inspector) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), i.timeout)
}
