package grab

import (
	"strings"

	"github.com/grabr-ai/grabr/inspect"
)

// exact handler-name classifications, consulted before prefix rules.
var handlerEvents = map[string]string{
	"onClick":       "click",
	"onDoubleClick": "click",
	"onChange":      "change",
	"onInput":       "input",
	"onSubmit":      "submit",
	"onFocus":       "focus",
	"onBlur":        "focus",
	"onMouseEnter":  "hover",
	"onMouseLeave":  "hover",
	"onMouseOver":   "hover",
	"onMouseOut":    "hover",
	"onKeyDown":     "keyboard",
	"onKeyUp":       "keyboard",
	"onKeyPress":    "keyboard",
}

// prefix fallbacks for the long tail of handler names.
var handlerPrefixes = []struct {
	prefix string
	event  string
}{
	{"onMouse", "hover"},
	{"onKey", "keyboard"},
	{"onTouch", "pointer"},
	{"onPointer", "pointer"},
	{"onDrag", "pointer"},
}

// buildBehavior scans handler-like input names on the host frame and the
// owner frame, deduplicated by name. The result is purely speculative:
// level "prop-name-only" at best, never a claim the handler fires.
func (e *Engine) buildBehavior(frames inspect.Frames) BehaviorContext {
	if e.insp == nil || (frames.Host == nil && frames.Owner == nil) {
		return BehaviorContext{Level: BehaviorNone}
	}

	seen := make(map[string]bool)
	var handlers []HandlerGuess
	collect := func(f inspect.Frame) {
		if f == nil {
			return
		}
		e.insp.WalkInputs(f, func(name string, _ any) bool {
			if !isHandlerName(name) || seen[name] {
				return true
			}
			seen[name] = true
			handlers = append(handlers, HandlerGuess{Name: name, Event: classifyHandler(name)})
			return true
		})
	}
	collect(frames.Host)
	collect(frames.Owner)

	if len(handlers) == 0 {
		return BehaviorContext{Level: BehaviorNone}
	}
	return BehaviorContext{Level: BehaviorPropNameOnly, Handlers: handlers}
}

// isHandlerName matches the "on" + UpperCamel convention for event inputs.
func isHandlerName(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on") &&
		name[2] >= 'A' && name[2] <= 'Z'
}

func classifyHandler(name string) string {
	if ev, ok := handlerEvents[name]; ok {
		return ev
	}
	for _, p := range handlerPrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.event
		}
	}
	return "other"
}
