// Package selection coordinates an interactive grab: it tracks the
// hovered and selected element sets, drives bounded-concurrency capture
// across the selection, assembles the session, and hands it to a delivery
// provider while reporting granular progress.
package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/grabr-ai/grabr/deliver"
	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/grab"
	"github.com/grabr-ai/grabr/idgen"
)

// State is the machine's lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateSelecting State = "selecting"
	StateCapturing State = "capturing"
	StateSending   State = "sending"
	StateDone      State = "done"
	StateError     State = "error"
)

// ProgressEvent is emitted at every phase boundary and at every
// per-element capture completion. Completed/Total count elements inside
// the capturing phase; Err is set on error-state events.
type ProgressEvent struct {
	State     State
	Completed int
	Total     int
	Err       error
}

// ProgressFunc receives progress events. It is called from the goroutine
// driving the transition, never while the machine's lock is held.
type ProgressFunc func(ProgressEvent)

// Capturer builds one element context. *grab.Engine satisfies it.
type Capturer interface {
	GetContext(ctx context.Context, el dom.Element) (*grab.ElementContext, error)
}

// Machine is the interactive selection controller. All methods are safe
// for concurrent use; capture workers never touch the selection sets,
// they only read the element handed to them.
type Machine struct {
	doc      dom.Document
	capturer Capturer
	progress ProgressFunc
	logger   *slog.Logger
	newID    idgen.Generator
	now      func() time.Time

	mu          sync.Mutex
	state       State
	canceled    bool
	instruction string
	hovered     map[dom.Element]struct{}
	selected    map[dom.Element]struct{}
	order       []dom.Element
	session     *grab.Session
}

// Option configures a Machine.
type Option func(*Machine)

// WithProgress installs the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(m *Machine) { m.progress = fn }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// WithGenerator overrides the session ID generator.
func WithGenerator(gen idgen.Generator) Option {
	return func(m *Machine) { m.newID = gen }
}

// NewMachine creates an idle machine over the given document and capturer.
func NewMachine(doc dom.Document, capturer Capturer, opts ...Option) *Machine {
	m := &Machine{
		doc:      doc,
		capturer: capturer,
		logger:   slog.Default(),
		newID:    idgen.Prefixed("sess_", idgen.Default),
		now:      time.Now,
		state:    StateIdle,
		hovered:  map[dom.Element]struct{}{},
		selected: map[dom.Element]struct{}{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the most recently constructed session, or nil.
func (m *Machine) Session() *grab.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Begin starts (or restarts) a selection pass, resetting the hover and
// selection sets. Allowed from idle, selecting and sending.
func (m *Machine) Begin(instruction string) error {
	m.mu.Lock()
	switch m.state {
	case StateIdle, StateSelecting, StateSending:
	default:
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("selection: cannot begin from state %q", state)
	}
	m.state = StateSelecting
	m.canceled = false
	m.instruction = instruction
	m.hovered = map[dom.Element]struct{}{}
	m.selected = map[dom.Element]struct{}{}
	m.order = nil
	m.mu.Unlock()

	m.emit(ProgressEvent{State: StateSelecting})
	return nil
}

// Hover records the element currently under the pointer. Ignored outside
// the selecting state; hover events race with transitions by nature.
func (m *Machine) Hover(el dom.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateSelecting {
		return
	}
	m.hovered = map[dom.Element]struct{}{el: {}}
}

// Hovered returns the element currently under the pointer, or nil. The
// interactive surface reads it to draw its highlight.
func (m *Machine) Hovered() dom.Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	for el := range m.hovered {
		return el
	}
	return nil
}

// Toggle adds the element to the selection, or removes it when already
// selected. Identity is reference identity. Ignored outside selecting.
func (m *Machine) Toggle(el dom.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateSelecting {
		return
	}
	if _, ok := m.selected[el]; ok {
		delete(m.selected, el)
		for i, e := range m.order {
			if e == el {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		return
	}
	m.selected[el] = struct{}{}
	m.order = append(m.order, el)
}

// Selected returns the selection in toggle order.
func (m *Machine) Selected() []dom.Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dom.Element, len(m.order))
	copy(out, m.order)
	return out
}

// Cancel discards the pending selection with no side effects. From
// selecting it returns the machine to idle immediately; during capturing
// it marks the pass canceled, letting claimed captures finish but
// skipping session construction and delivery.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateSelecting:
		m.state = StateIdle
		m.hovered = map[dom.Element]struct{}{}
		m.selected = map[dom.Element]struct{}{}
		m.order = nil
		return nil
	case StateCapturing:
		m.canceled = true
		return nil
	case StateIdle:
		return nil
	default:
		return fmt.Errorf("selection: cannot cancel from state %q", m.state)
	}
}

// Finalize captures every selected element still attached to the
// document, builds a session and hands it to the provider. Per-element
// capture failures are counted and excluded; only a total failure aborts.
// The machine ends in idle regardless of outcome.
func (m *Machine) Finalize(ctx context.Context, provider deliver.Provider) (*grab.Session, error) {
	m.mu.Lock()
	if m.state != StateSelecting {
		state := m.state
		m.mu.Unlock()
		return nil, fmt.Errorf("selection: cannot finalize from state %q", state)
	}
	elements := make([]dom.Element, 0, len(m.order))
	for _, el := range m.order {
		if el.Connected() {
			elements = append(elements, el)
		}
	}
	instruction := m.instruction
	m.state = StateCapturing
	m.canceled = false
	m.mu.Unlock()

	total := len(elements)
	if total == 0 {
		err := fmt.Errorf("selection: no selected element is still attached to the document")
		return nil, m.fail(err, 0, 0)
	}
	m.emit(ProgressEvent{State: StateCapturing, Total: total})

	var completed int
	var progressMu sync.Mutex
	contexts, errs := BoundedMap(ctx, elements, CaptureConcurrency,
		func(ctx context.Context, el dom.Element) (*grab.ElementContext, error) {
			ec, err := m.captureElement(ctx, el)
			progressMu.Lock()
			completed++
			done := completed
			progressMu.Unlock()
			m.emit(ProgressEvent{State: StateCapturing, Completed: done, Total: total})
			return ec, err
		})

	kept := make([]*grab.ElementContext, 0, total)
	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			m.logger.Warn("selection: element capture failed",
				"tag", elements[i].Tag(), "id", elements[i].ID(), "error", err)
			continue
		}
		kept = append(kept, contexts[i])
	}
	if len(kept) == 0 {
		err := fmt.Errorf("selection: all %d captures failed", total)
		return nil, m.fail(err, total, total)
	}

	m.mu.Lock()
	if m.canceled {
		m.state = StateIdle
		m.mu.Unlock()
		return nil, fmt.Errorf("selection: finalize canceled")
	}
	session := &grab.Session{
		ID:          m.newID(),
		CreatedAt:   m.now().UTC(),
		URL:         m.doc.URL(),
		Instruction: instruction,
		Summary:     captureSummary(len(kept), failed),
		Contexts:    kept,
	}
	m.session = session
	m.state = StateSending
	m.mu.Unlock()

	m.emit(ProgressEvent{State: StateSending, Completed: len(kept), Total: total})
	m.logger.Info("selection: session built",
		"session", session.ID, "elements", len(kept), "failed", failed)

	if err := provider.SendContext(ctx, session); err != nil {
		deliver.NotifyError(provider, session, err)
		err = fmt.Errorf("selection: provider %q failed for session %s: %w",
			provider.ID(), session.ID, err)
		return session, m.fail(err, len(kept), total)
	}
	deliver.NotifySuccess(provider, session)
	m.settle(StateDone, ProgressEvent{State: StateDone, Completed: len(kept), Total: total})
	return session, nil
}

// captureElement runs one capture with a recovery boundary so a panicking
// introspection path counts as a per-element failure.
func (m *Machine) captureElement(ctx context.Context, el dom.Element) (ec *grab.ElementContext, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("selection: capture panicked: %v", r)
		}
	}()
	return m.capturer.GetContext(ctx, el)
}

// fail reports a terminal error event, returns the machine to idle and
// passes the error through.
func (m *Machine) fail(err error, completed, total int) error {
	m.settle(StateError, ProgressEvent{State: StateError, Completed: completed, Total: total, Err: err})
	return err
}

// settle transitions to a terminal state, emits its event, then returns
// to idle. A Begin that raced in during sending keeps its selecting state.
func (m *Machine) settle(terminal State, ev ProgressEvent) {
	m.mu.Lock()
	interrupted := m.state == StateSelecting
	if !interrupted {
		m.state = terminal
	}
	m.mu.Unlock()

	m.emit(ev)

	m.mu.Lock()
	if m.state == terminal {
		m.state = StateIdle
	}
	m.mu.Unlock()
}

func (m *Machine) emit(ev ProgressEvent) {
	if m.progress != nil {
		m.progress(ev)
	}
}

func captureSummary(ok, failed int) string {
	s := fmt.Sprintf("captured %d element", ok)
	if ok != 1 {
		s += "s"
	}
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	return s
}
