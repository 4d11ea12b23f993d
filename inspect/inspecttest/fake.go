// Package inspecttest provides a configurable in-memory Inspector for tests
// of the extraction pipeline.
package inspecttest

import (
	"context"

	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/inspect"
)

// Frame is a scriptable component frame.
type Frame struct {
	FrameName string
	FrameKind inspect.FrameKind

	// Inputs are visited by WalkInputs in order.
	Inputs []Input
	// StateSlots are visited by WalkStateSlots in order.
	StateSlots []any
	// Subscribed are visited by WalkSubscribedValues in order.
	Subscribed []any

	// Source is returned by ResolveSourceLocation; SourceErr wins when set.
	Source    *inspect.SourceLocation
	SourceErr error
}

// Input is a named frame input.
type Input struct {
	Name  string
	Value any
}

func (f *Frame) Name() string            { return f.FrameName }
func (f *Frame) Kind() inspect.FrameKind { return f.FrameKind }

// Inspector is a scriptable inspect.Inspector. The zero value behaves like
// a page with no introspection hook.
type Inspector struct {
	Hook    bool // Installed()
	Running bool // Active()

	// Stacks maps an element to its frame stack, nearest-first. The first
	// entry is the owning frame.
	Stacks map[dom.Element][]*Frame

	// ResolveErr, when set, makes every owning-frame lookup fail.
	ResolveErr error

	Build inspect.BuildMode
}

var _ inspect.Inspector = (*Inspector)(nil)

func (i *Inspector) Installed() bool { return i.Hook }
func (i *Inspector) Active() bool    { return i.Running }

func (i *Inspector) ResolveOwningFrame(el dom.Element) (inspect.Frame, error) {
	if i.ResolveErr != nil {
		return nil, i.ResolveErr
	}
	stack := i.Stacks[el]
	if len(stack) == 0 {
		return nil, nil
	}
	return stack[0], nil
}

func (i *Inspector) AncestorFrames(f inspect.Frame) []inspect.Frame {
	for _, stack := range i.Stacks {
		if len(stack) > 0 && stack[0] == f {
			out := make([]inspect.Frame, 0, len(stack)-1)
			for _, a := range stack[1:] {
				out = append(out, a)
			}
			return out
		}
	}
	return nil
}

func (i *Inspector) WalkInputs(f inspect.Frame, visit func(string, any) bool) {
	ff, ok := f.(*Frame)
	if !ok {
		return
	}
	for _, in := range ff.Inputs {
		if !visit(in.Name, in.Value) {
			return
		}
	}
}

func (i *Inspector) WalkStateSlots(f inspect.Frame, visit func(any) bool) {
	ff, ok := f.(*Frame)
	if !ok {
		return
	}
	for _, v := range ff.StateSlots {
		if !visit(v) {
			return
		}
	}
}

func (i *Inspector) WalkSubscribedValues(f inspect.Frame, visit func(any) bool) {
	ff, ok := f.(*Frame)
	if !ok {
		return
	}
	for _, v := range ff.Subscribed {
		if !visit(v) {
			return
		}
	}
}

func (i *Inspector) DetectBuildMode() inspect.BuildMode { return i.Build }

func (i *Inspector) ResolveSourceLocation(_ context.Context, f inspect.Frame) (*inspect.SourceLocation, error) {
	ff, ok := f.(*Frame)
	if !ok {
		return nil, nil
	}
	if ff.SourceErr != nil {
		return nil, ff.SourceErr
	}
	return ff.Source, nil
}
