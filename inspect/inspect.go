// Package inspect defines the component-tree introspection capability and
// builds bounded component-frame slices from it.
//
// Introspection is always best-effort: the capability may be missing,
// installed-but-idle, or broken mid-call. Every entry point degrades to a
// health status or a nil slice instead of failing the caller.
package inspect

import (
	"context"
	"fmt"

	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/sval"
)

// Mode controls whether introspection runs at all.
type Mode string

const (
	ModeBestEffort Mode = "best-effort"
	ModeRequired   Mode = "required"
	ModeOff        Mode = "off"
)

// Valid reports whether m is one of the three accepted literals.
func (m Mode) Valid() bool {
	switch m {
	case ModeBestEffort, ModeRequired, ModeOff:
		return true
	}
	return false
}

// FrameKind classifies a component frame structurally.
type FrameKind string

const (
	KindHost      FrameKind = "host"      // renders a concrete DOM node
	KindComposite FrameKind = "composite" // stateful user component
	KindBoundary  FrameKind = "boundary"  // error/suspense boundary-like
	KindOther     FrameKind = "other"
)

// BuildMode is the inspected application's build flavor.
type BuildMode string

const (
	BuildDevelopment BuildMode = "development"
	BuildProduction  BuildMode = "production"
	BuildUnknown     BuildMode = ""
)

// Frame is an opaque handle to one component frame in the inspected tree.
type Frame interface {
	Name() string
	Kind() FrameKind
}

// SourceLocation points at the source of a component frame. Line and Col
// are nil when the bundler stripped them.
type SourceLocation struct {
	File string `json:"file"`
	Line *int   `json:"line,omitempty"`
	Col  *int   `json:"col,omitempty"`
}

// Inspector is the component-tree introspection capability. Implementations
// bridge to whatever devtools hook the inspected page exposes; all methods
// are best-effort and must not panic, with the single exception of
// ResolveOwningFrame which may return an error (mapped to health "error").
type Inspector interface {
	// Installed reports whether the introspection hook exists at all.
	Installed() bool

	// Active reports whether the hook has seen a renderer commit.
	Active() bool

	// ResolveOwningFrame returns the frame owning el, nil when el is plain
	// DOM, or an error when the lookup itself broke.
	ResolveOwningFrame(el dom.Element) (Frame, error)

	// AncestorFrames returns f's ancestors, nearest-first, excluding f.
	AncestorFrames(f Frame) []Frame

	// WalkInputs visits the frame's declared inputs in order until visit
	// returns false.
	WalkInputs(f Frame, visit func(name string, value any) bool)

	// WalkStateSlots visits the frame's internal state slots in order.
	WalkStateSlots(f Frame, visit func(value any) bool)

	// WalkSubscribedValues visits context values the frame subscribes to.
	WalkSubscribedValues(f Frame, visit func(value any) bool)

	// DetectBuildMode reports the inspected app's build flavor.
	DetectBuildMode() BuildMode

	// ResolveSourceLocation resolves a source hint for f. Per-call failures
	// return (nil, error) and must never propagate beyond the frame.
	ResolveSourceLocation(ctx context.Context, f Frame) (*SourceLocation, error)
}

// Status is the tri-state-plus health of introspection for one capture.
type Status string

const (
	StatusNoHook   Status = "no-hook"  // capability not installed
	StatusInactive Status = "inactive" // installed but no renderer yet
	StatusNoFiber  Status = "no-fiber" // element has no owning frame
	StatusError    Status = "error"    // lookup threw
	StatusOK       Status = "ok"
)

// HealthReport pairs a status with a human-readable message for the
// non-usable states.
type HealthReport struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Usable reports whether frame building can proceed.
func (h HealthReport) Usable() bool { return h.Status == StatusOK }

// Health computes the introspection health for el. It never panics: any
// internal failure maps to StatusError with a message.
func Health(insp Inspector, el dom.Element) (report HealthReport) {
	defer func() {
		if r := recover(); r != nil {
			report = HealthReport{
				Status:  StatusError,
				Message: fmt.Sprintf("introspection panicked: %v", r),
			}
		}
	}()

	if insp == nil || !insp.Installed() {
		return HealthReport{
			Status:  StatusNoHook,
			Message: "component-tree introspection hook is not installed",
		}
	}
	if !insp.Active() {
		return HealthReport{
			Status:  StatusInactive,
			Message: "introspection hook installed but no renderer is active",
		}
	}
	frame, err := insp.ResolveOwningFrame(el)
	if err != nil {
		return HealthReport{
			Status:  StatusError,
			Message: fmt.Sprintf("owning-frame lookup failed for <%s>: %v", el.Tag(), err),
		}
	}
	if frame == nil {
		return HealthReport{
			Status:  StatusNoFiber,
			Message: fmt.Sprintf("<%s> has no associated component frame", el.Tag()),
		}
	}
	return HealthReport{Status: StatusOK}
}

// MaxOwnerSnapshotEntries caps each owner snapshot (inputs, state slots,
// subscribed values).
const MaxOwnerSnapshotEntries = 12

// InputSnapshot is one named input captured from the owner frame.
type InputSnapshot struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

// FrameInfo is the serializable view of one frame in a slice.
type FrameInfo struct {
	Name   string          `json:"name"`
	Kind   FrameKind       `json:"kind"`
	Source *SourceLocation `json:"source,omitempty"`
	// Confidence rates the source hint: high for development builds, low
	// for production, medium otherwise. Empty when Source is nil.
	Confidence string `json:"confidence,omitempty"`
}

// TreeSlice is the bounded component-tree facet of a capture: up to
// maxFrames frames nearest-first, the index of the nearest stateful owner
// (nil when none), and owner-only snapshots.
type TreeSlice struct {
	Stack      []FrameInfo     `json:"stack"`
	OwnerIndex *int            `json:"ownerIndex,omitempty"`
	Inputs     []InputSnapshot `json:"inputs,omitempty"`
	StateSlots []any           `json:"stateSlots,omitempty"`
	Subscribed []any           `json:"subscribed,omitempty"`
}

// Frames carries the raw frame handles alongside a built slice so later
// pipeline stages (behavior inference) can walk them without re-resolving.
type Frames struct {
	Stack []Frame
	Host  Frame // nearest host-kind frame, may be nil
	Owner Frame // nearest composite frame, may be nil
}

// BuildSlice resolves the component-tree slice for el. It returns a nil
// slice when mode is off or health is not ok. Per-frame source resolution
// failures degrade to a nil source hint for that frame only.
func BuildSlice(ctx context.Context, insp Inspector, el dom.Element, mode Mode, maxFrames int, health HealthReport) (*TreeSlice, Frames) {
	if mode == ModeOff || !health.Usable() || insp == nil {
		return nil, Frames{}
	}

	owning, err := insp.ResolveOwningFrame(el)
	if err != nil || owning == nil {
		return nil, Frames{}
	}

	stack := append([]Frame{owning}, insp.AncestorFrames(owning)...)
	if len(stack) > maxFrames {
		stack = stack[:maxFrames]
	}

	confidence := sourceConfidence(insp.DetectBuildMode())
	slice := &TreeSlice{Stack: make([]FrameInfo, len(stack))}
	frames := Frames{Stack: stack}

	for i, f := range stack {
		info := FrameInfo{Name: f.Name(), Kind: f.Kind()}
		if src, srcErr := insp.ResolveSourceLocation(ctx, f); srcErr == nil && src != nil {
			info.Source = src
			info.Confidence = confidence
		}
		slice.Stack[i] = info

		if frames.Host == nil && f.Kind() == KindHost {
			frames.Host = f
		}
		if frames.Owner == nil && f.Kind() == KindComposite {
			idx := i
			slice.OwnerIndex = &idx
			frames.Owner = f
		}
	}

	if frames.Owner != nil {
		snapshotOwner(insp, frames.Owner, slice)
	}
	return slice, frames
}

func snapshotOwner(insp Inspector, owner Frame, slice *TreeSlice) {
	insp.WalkInputs(owner, func(name string, value any) bool {
		if len(slice.Inputs) >= MaxOwnerSnapshotEntries {
			return false
		}
		slice.Inputs = append(slice.Inputs, InputSnapshot{
			Name:  name,
			Value: sval.Convert(value, 0),
		})
		return true
	})
	insp.WalkStateSlots(owner, func(value any) bool {
		if len(slice.StateSlots) >= MaxOwnerSnapshotEntries {
			return false
		}
		slice.StateSlots = append(slice.StateSlots, sval.Convert(value, 0))
		return true
	})
	insp.WalkSubscribedValues(owner, func(value any) bool {
		if len(slice.Subscribed) >= MaxOwnerSnapshotEntries {
			return false
		}
		slice.Subscribed = append(slice.Subscribed, sval.Convert(value, 0))
		return true
	})
}

func sourceConfidence(mode BuildMode) string {
	switch mode {
	case BuildDevelopment:
		return "high"
	case BuildProduction:
		return "low"
	default:
		return "medium"
	}
}
