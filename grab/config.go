package grab

import (
	"fmt"

	"github.com/grabr-ai/grabr/inspect"
	"github.com/grabr-ai/grabr/strategy"
)

// Stack-frame bounds for RuntimeConfig.MaxStackFrames.
const (
	MinStackFrames     = 1
	MaxStackFramesCap  = 64
	DefaultStackFrames = 8
)

// RuntimeConfig is the engine configuration. It is constructed once at
// client creation, validated eagerly, and treated as immutable afterwards.
//
// The zero value is not valid: start from DefaultRuntimeConfig and override
// fields, so that an explicit out-of-range value (say MaxStackFrames 0) is
// always a loud configuration error rather than a silent default.
type RuntimeConfig struct {
	// InspectorMode controls component-tree introspection:
	// best-effort, required, or off.
	InspectorMode inspect.Mode

	// MaxStackFrames bounds the component-frame stack, in [1,64].
	MaxStackFrames int

	// Frameworks are the ordered framework-detection strategies; the first
	// non-nil result wins. Nil falls back to the built-in order.
	Frameworks []strategy.FrameworkFunc

	// DataSources are the ordered data-source strategies; all hints are
	// concatenated. Nil falls back to the built-in order.
	DataSources []strategy.DataSourceFunc
}

// DefaultRuntimeConfig returns the standard configuration: best-effort
// introspection, 8 stack frames, built-in strategies.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		InspectorMode:  inspect.ModeBestEffort,
		MaxStackFrames: DefaultStackFrames,
		Frameworks:     strategy.DefaultFrameworks(),
		DataSources:    strategy.DefaultDataSources(),
	}
}

// IsUnset reports whether the config is the untouched zero value, which
// callers treat as "use DefaultRuntimeConfig".
func (c RuntimeConfig) IsUnset() bool {
	return c.InspectorMode == "" && c.MaxStackFrames == 0 &&
		c.Frameworks == nil && c.DataSources == nil
}

// Validate checks the config. A failure here is a configuration error:
// fatal at construction time, never at capture time.
func (c RuntimeConfig) Validate() error {
	if !c.InspectorMode.Valid() {
		return fmt.Errorf("grab: invalid inspector mode %q (want best-effort, required, or off)", c.InspectorMode)
	}
	if c.MaxStackFrames < MinStackFrames || c.MaxStackFrames > MaxStackFramesCap {
		return fmt.Errorf("grab: max stack frames %d out of range [%d,%d]",
			c.MaxStackFrames, MinStackFrames, MaxStackFramesCap)
	}
	return nil
}
