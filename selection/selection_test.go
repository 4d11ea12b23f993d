package selection_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grabr-ai/grabr/deliver"
	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/grab"
	"github.com/grabr-ai/grabr/selection"
)

type fakeDoc struct{}

func (fakeDoc) URL() string   { return "https://app.example/projects" }
func (fakeDoc) Title() string { return "Projects" }

type fakeElement struct {
	tag       string
	id        string
	connected bool
}

func (e *fakeElement) Tag() string { return e.tag }
func (e *fakeElement) ID() string { return e.id }
func (e *fakeElement) Attr(string) string { return "" }
func (e *fakeElement) Classes() []string { return nil }
func (e *fakeElement) Text() string { return "" }
func (e *fakeElement) Rect() dom.Rect { return dom.Rect{} }
func (e *fakeElement) Parent() dom.Element { return nil }
func (e *fakeElement) Children() []dom.Element { return nil }
func (e *fakeElement) Connected() bool { return e.connected }
func (e *fakeElement) ComputedStyle(string) string { return "" }
func (e *fakeElement) Same(other dom.Element) bool {
	o, ok := other.(*fakeElement)
	return ok && o == e
}

// fakeCapturer builds a minimal context per element, failing or panicking
// for scripted IDs.
type fakeCapturer struct {
	failIDs  map[string]bool
	panicIDs map[string]bool
}

func (c *fakeCapturer) GetContext(_ context.Context, el dom.Element) (*grab.ElementContext, error) {
	if c.panicIDs[el.ID()] {
		panic("introspection blew up")
	}
	if c.failIDs[el.ID()] {
		return nil, errors.New("capture failed")
	}
	return &grab.ElementContext{
		Version:   grab.ContextVersion,
		Selection: grab.SelectionInfo{Tag: el.Tag(), DomID: el.ID()},
	}, nil
}

type fakeProvider struct {
	mu     sync.Mutex
	sent   []*grab.Session
	err    error
	ok     int
	failed int
}

func (p *fakeProvider) ID() string    { return "fake" }
func (p *fakeProvider) Label() string { return "Fake" }
func (p *fakeProvider) SendContext(_ context.Context, s *grab.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, s)
	return p.err
}
func (p *fakeProvider) OnSuccess(*grab.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ok++
}
func (p *fakeProvider) OnError(*grab.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
}

var _ deliver.Provider = (*fakeProvider)(nil)

func TestBoundedMapPreservesOrder(t *testing.T) {
	for _, limit := range []int{1, 2, 3, 8} {
		for _, count := range []int{0, 1, 2, 7} {
			items := make([]int, count)
			for i := range items {
				items[i] = i
			}
			// Later items finish first so completion order inverts input order.
			results, errs := selection.BoundedMap(context.Background(), items, limit,
				func(_ context.Context, n int) (string, error) {
					time.Sleep(time.Duration(count-n) * time.Millisecond)
					return fmt.Sprintf("item-%d", n), nil
				})
			if len(results) != count || len(errs) != count {
				t.Fatalf("limit=%d count=%d: got %d results, %d errs", limit, count, len(results), len(errs))
			}
			for i, r := range results {
				if want := fmt.Sprintf("item-%d", i); r != want {
					t.Fatalf("limit=%d count=%d: results[%d] = %q, want %q", limit, count, i, r, want)
				}
				if errs[i] != nil {
					t.Fatalf("limit=%d count=%d: errs[%d] = %v", limit, count, i, errs[i])
				}
			}
		}
	}
}

func TestBoundedMapRespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int64
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}
	_, _ = selection.BoundedMap(context.Background(), items, 2,
		func(_ context.Context, _ int) (struct{}, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}, nil
		})
	if got := peak.Load(); got > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", got)
	}
}

func TestBoundedMapClampsLimit(t *testing.T) {
	results, _ := selection.BoundedMap(context.Background(), []int{1, 2, 3}, 0,
		func(_ context.Context, n int) (int, error) { return n * 2, nil })
	if results[0] != 2 || results[1] != 4 || results[2] != 6 {
		t.Fatalf("results = %v", results)
	}
}

func newTestMachine(t *testing.T, c selection.Capturer, opts ...selection.Option) *selection.Machine {
	t.Helper()
	return selection.NewMachine(fakeDoc{}, c, opts...)
}

func connectedButtons(ids ...string) []*fakeElement {
	els := make([]*fakeElement, len(ids))
	for i, id := range ids {
		els[i] = &fakeElement{tag: "button", id: id, connected: true}
	}
	return els
}

func TestToggleAndCancel(t *testing.T) {
	m := newTestMachine(t, &fakeCapturer{})
	a, b := &fakeElement{tag: "a", connected: true}, &fakeElement{tag: "b", connected: true}

	// Events outside selecting are ignored.
	m.Toggle(a)
	if len(m.Selected()) != 0 {
		t.Fatal("toggle before Begin must be ignored")
	}

	if err := m.Begin("fix it"); err != nil {
		t.Fatal(err)
	}
	m.Hover(a)
	if m.Hovered() != dom.Element(a) {
		t.Fatal("hover must track the element under the pointer")
	}
	m.Toggle(a)
	m.Toggle(b)
	m.Toggle(a) // deselect
	sel := m.Selected()
	if len(sel) != 1 || sel[0] != dom.Element(b) {
		t.Fatalf("selected = %v", sel)
	}

	if err := m.Cancel(); err != nil {
		t.Fatal(err)
	}
	if m.State() != selection.StateIdle || len(m.Selected()) != 0 {
		t.Fatalf("cancel must discard selection, state = %s", m.State())
	}
	if _, err := m.Finalize(context.Background(), &fakeProvider{}); err == nil {
		t.Fatal("finalize after cancel must fail")
	}
}

func TestBeginResetsSelection(t *testing.T) {
	m := newTestMachine(t, &fakeCapturer{})
	a := &fakeElement{tag: "a", connected: true}

	if err := m.Begin("first"); err != nil {
		t.Fatal(err)
	}
	m.Toggle(a)
	if err := m.Begin("second"); err != nil {
		t.Fatal(err)
	}
	if len(m.Selected()) != 0 {
		t.Fatal("re-entrant Begin must reset the selection set")
	}
}

func TestFinalizePartialFailure(t *testing.T) {
	var events []selection.ProgressEvent
	var mu sync.Mutex
	m := newTestMachine(t,
		&fakeCapturer{panicIDs: map[string]bool{"mid": true}},
		selection.WithProgress(func(ev selection.ProgressEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}),
	)
	els := connectedButtons("first", "mid", "last")
	p := &fakeProvider{}

	if err := m.Begin("restyle these"); err != nil {
		t.Fatal(err)
	}
	for _, el := range els {
		m.Toggle(el)
	}
	s, err := m.Finalize(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Contexts) != 2 {
		t.Fatalf("contexts = %d, want 2", len(s.Contexts))
	}
	if s.Contexts[0].Selection.DomID != "first" || s.Contexts[1].Selection.DomID != "last" {
		t.Fatalf("session order wrong: %s, %s",
			s.Contexts[0].Selection.DomID, s.Contexts[1].Selection.DomID)
	}
	if !strings.Contains(s.Summary, "1 failed") {
		t.Fatalf("summary = %q, must mention the failure count", s.Summary)
	}
	if s.Instruction != "restyle these" || s.URL != "https://app.example/projects" {
		t.Fatalf("session meta wrong: %+v", s)
	}
	if !strings.HasPrefix(s.ID, "sess_") {
		t.Fatalf("session id = %q", s.ID)
	}

	if len(p.sent) != 1 || p.ok != 1 || p.failed != 0 {
		t.Fatalf("provider saw sent=%d ok=%d failed=%d", len(p.sent), p.ok, p.failed)
	}
	if m.State() != selection.StateIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}
	if m.Session() != s {
		t.Fatal("session must be retained as current")
	}

	mu.Lock()
	defer mu.Unlock()
	perElement := 0
	for _, ev := range events {
		if ev.State == selection.StateCapturing && ev.Completed > 0 {
			perElement++
			if ev.Total != 3 {
				t.Fatalf("capture event total = %d, want 3", ev.Total)
			}
		}
	}
	if perElement != 3 {
		t.Fatalf("per-element events = %d, want 3", perElement)
	}
	last := events[len(events)-1]
	if last.State != selection.StateDone {
		t.Fatalf("final event state = %s, want done", last.State)
	}
}

func TestFinalizeAllDetached(t *testing.T) {
	var terminal *selection.ProgressEvent
	m := newTestMachine(t, &fakeCapturer{},
		selection.WithProgress(func(ev selection.ProgressEvent) {
			if ev.Err != nil {
				terminal = &ev
			}
		}),
	)
	p := &fakeProvider{}

	if err := m.Begin(""); err != nil {
		t.Fatal(err)
	}
	m.Toggle(&fakeElement{tag: "div", connected: false})
	m.Toggle(&fakeElement{tag: "span", connected: false})

	s, err := m.Finalize(context.Background(), p)
	if err == nil || s != nil {
		t.Fatalf("want terminal error and no session, got %v, %v", s, err)
	}
	if terminal == nil || terminal.Total != 0 {
		t.Fatalf("terminal event = %+v, want total 0", terminal)
	}
	if len(p.sent) != 0 {
		t.Fatal("provider must not be reached")
	}
	if m.State() != selection.StateIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}
}

func TestFinalizeAllCapturesFail(t *testing.T) {
	m := newTestMachine(t, &fakeCapturer{failIDs: map[string]bool{"a": true, "b": true}})
	p := &fakeProvider{}

	if err := m.Begin(""); err != nil {
		t.Fatal(err)
	}
	for _, el := range connectedButtons("a", "b") {
		m.Toggle(el)
	}
	s, err := m.Finalize(context.Background(), p)
	if err == nil || s != nil {
		t.Fatalf("want terminal error, got %v, %v", s, err)
	}
	if !strings.Contains(err.Error(), "all 2 captures failed") {
		t.Fatalf("err = %v", err)
	}
	if len(p.sent) != 0 {
		t.Fatal("no session may reach the provider")
	}
	if m.State() != selection.StateIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}
}

func TestFinalizeProviderFailure(t *testing.T) {
	var states []selection.State
	m := newTestMachine(t, &fakeCapturer{},
		selection.WithProgress(func(ev selection.ProgressEvent) {
			states = append(states, ev.State)
		}),
	)
	p := &fakeProvider{err: errors.New("clipboard unavailable")}

	if err := m.Begin(""); err != nil {
		t.Fatal(err)
	}
	m.Toggle(connectedButtons("only")[0])

	s, err := m.Finalize(context.Background(), p)
	if err == nil {
		t.Fatal("provider failure must surface")
	}
	if !strings.Contains(err.Error(), "clipboard unavailable") {
		t.Fatalf("err = %v", err)
	}
	if s == nil || m.Session() == nil {
		t.Fatal("the session itself stays valid on delivery failure")
	}
	if p.failed != 1 || p.ok != 0 {
		t.Fatalf("hooks ok=%d failed=%d", p.ok, p.failed)
	}
	if states[len(states)-1] != selection.StateError {
		t.Fatalf("final event state = %s, want error", states[len(states)-1])
	}
	if m.State() != selection.StateIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}
}
