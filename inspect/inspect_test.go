package inspect_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/htmldom"
	"github.com/grabr-ai/grabr/inspect"
	"github.com/grabr-ai/grabr/inspect/inspecttest"
)

func testElement(t *testing.T) dom.Element {
	t.Helper()
	d, err := htmldom.ParseString(`<html><body><button id="b">Go</button></body></html>`, "https://x.example/")
	if err != nil {
		t.Fatal(err)
	}
	el, err := d.FindBySelector("#b")
	if err != nil {
		t.Fatal(err)
	}
	return el
}

func TestHealthStates(t *testing.T) {
	el := testElement(t)

	cases := []struct {
		name string
		insp *inspecttest.Inspector
		want inspect.Status
	}{
		{"nil inspector", nil, inspect.StatusNoHook},
		{"not installed", &inspecttest.Inspector{}, inspect.StatusNoHook},
		{"installed but idle", &inspecttest.Inspector{Hook: true}, inspect.StatusInactive},
		{"plain dom node", &inspecttest.Inspector{Hook: true, Running: true}, inspect.StatusNoFiber},
		{"lookup error", &inspecttest.Inspector{Hook: true, Running: true, ResolveErr: errors.New("boom")}, inspect.StatusError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var insp inspect.Inspector
			if c.insp != nil {
				insp = c.insp
			}
			got := inspect.Health(insp, el)
			if got.Status != c.want {
				t.Fatalf("status = %q, want %q", got.Status, c.want)
			}
			if got.Status != inspect.StatusOK && got.Message == "" {
				t.Fatal("non-ok health must carry a message")
			}
		})
	}

	ok := &inspecttest.Inspector{
		Hook: true, Running: true,
		Stacks: map[dom.Element][]*inspecttest.Frame{
			el: {{FrameName: "Button", FrameKind: inspect.KindComposite}},
		},
	}
	if got := inspect.Health(ok, el); got.Status != inspect.StatusOK {
		t.Fatalf("status = %q, want ok", got.Status)
	}
}

func stackOf(n int) []*inspecttest.Frame {
	frames := make([]*inspecttest.Frame, n)
	for i := range frames {
		frames[i] = &inspecttest.Frame{
			FrameName: fmt.Sprintf("Comp%d", i),
			FrameKind: inspect.KindOther,
		}
	}
	return frames
}

func TestBuildSliceBounds(t *testing.T) {
	el := testElement(t)
	insp := &inspecttest.Inspector{
		Hook: true, Running: true,
		Stacks: map[dom.Element][]*inspecttest.Frame{el: stackOf(10)},
	}
	health := inspect.Health(insp, el)

	slice, _ := inspect.BuildSlice(context.Background(), insp, el, inspect.ModeBestEffort, 4, health)
	if slice == nil {
		t.Fatal("expected a slice")
	}
	if len(slice.Stack) != 4 {
		t.Fatalf("stack length = %d, want 4", len(slice.Stack))
	}
	if slice.Stack[0].Name != "Comp0" {
		t.Fatalf("stack is not nearest-first: %v", slice.Stack)
	}
	if slice.OwnerIndex != nil {
		t.Fatal("no composite frame, OwnerIndex must be nil")
	}
}

func TestBuildSliceModeOffAndBadHealth(t *testing.T) {
	el := testElement(t)
	insp := &inspecttest.Inspector{
		Hook: true, Running: true,
		Stacks: map[dom.Element][]*inspecttest.Frame{el: stackOf(2)},
	}
	health := inspect.Health(insp, el)

	if slice, _ := inspect.BuildSlice(context.Background(), insp, el, inspect.ModeOff, 8, health); slice != nil {
		t.Fatal("mode off must not build a slice")
	}
	bad := inspect.HealthReport{Status: inspect.StatusNoHook}
	if slice, _ := inspect.BuildSlice(context.Background(), insp, el, inspect.ModeBestEffort, 8, bad); slice != nil {
		t.Fatal("unusable health must not build a slice")
	}
}

func TestBuildSliceOwnerSnapshots(t *testing.T) {
	el := testElement(t)

	inputs := make([]inspecttest.Input, 0, 15)
	for i := 0; i < 15; i++ {
		inputs = append(inputs, inspecttest.Input{Name: fmt.Sprintf("prop%02d", i), Value: i})
	}
	owner := &inspecttest.Frame{
		FrameName:  "SaveButton",
		FrameKind:  inspect.KindComposite,
		Inputs:     inputs,
		StateSlots: []any{1, 2, 3},
		Subscribed: []any{"theme"},
		Source:     &inspect.SourceLocation{File: "src/components/SaveButton.tsx"},
	}
	host := &inspecttest.Frame{FrameName: "button", FrameKind: inspect.KindHost}
	insp := &inspecttest.Inspector{
		Hook: true, Running: true,
		Build:  inspect.BuildDevelopment,
		Stacks: map[dom.Element][]*inspecttest.Frame{el: {host, owner}},
	}
	health := inspect.Health(insp, el)

	slice, frames := inspect.BuildSlice(context.Background(), insp, el, inspect.ModeBestEffort, 8, health)
	if slice == nil {
		t.Fatal("expected a slice")
	}
	if slice.OwnerIndex == nil || *slice.OwnerIndex != 1 {
		t.Fatalf("OwnerIndex = %v, want 1", slice.OwnerIndex)
	}
	if frames.Owner != owner || frames.Host != host {
		t.Fatal("raw frame handles not surfaced")
	}
	if len(slice.Inputs) != inspect.MaxOwnerSnapshotEntries {
		t.Fatalf("inputs = %d, want cap %d", len(slice.Inputs), inspect.MaxOwnerSnapshotEntries)
	}
	if slice.Inputs[0].Name != "prop00" {
		t.Fatalf("inputs not in traversal order: %v", slice.Inputs[0])
	}
	if len(slice.StateSlots) != 3 || len(slice.Subscribed) != 1 {
		t.Fatalf("state/subscribed = %d/%d", len(slice.StateSlots), len(slice.Subscribed))
	}
	if slice.Stack[1].Confidence != "high" {
		t.Fatalf("development build should rate sources high, got %q", slice.Stack[1].Confidence)
	}
}

func TestBuildSliceSourceFailureDegrades(t *testing.T) {
	el := testElement(t)
	broken := &inspecttest.Frame{
		FrameName: "Flaky",
		FrameKind: inspect.KindComposite,
		SourceErr: errors.New("sourcemap fetch failed"),
	}
	fine := &inspecttest.Frame{
		FrameName: "Page",
		FrameKind: inspect.KindOther,
		Source:    &inspect.SourceLocation{File: "src/app/page.tsx"},
	}
	insp := &inspecttest.Inspector{
		Hook: true, Running: true,
		Build:  inspect.BuildProduction,
		Stacks: map[dom.Element][]*inspecttest.Frame{el: {broken, fine}},
	}
	health := inspect.Health(insp, el)

	slice, _ := inspect.BuildSlice(context.Background(), insp, el, inspect.ModeBestEffort, 8, health)
	if slice == nil {
		t.Fatal("expected a slice despite per-frame source failure")
	}
	if slice.Stack[0].Source != nil {
		t.Fatal("failed source resolution must degrade to nil")
	}
	if slice.Stack[1].Source == nil || slice.Stack[1].Confidence != "low" {
		t.Fatalf("production source hint = %+v conf=%q", slice.Stack[1].Source, slice.Stack[1].Confidence)
	}
}
