// Package strategy holds the pluggable heuristics that classify an
// inspected element's application: framework/routing detection and
// data-source detection.
//
// Strategies are pure functions over evidence the extraction engine has
// already gathered. Framework strategies compose first-wins: the first one
// returning a non-nil guess decides. Data-source strategies compose
// additively: every strategy's hints are concatenated, and an empty result
// is replaced by a single "unknown" hint so the list is never empty.
package strategy

import (
	"regexp"
	"strconv"
	"strings"
)

// Evidence is the read-only input to every strategy.
type Evidence struct {
	// URLPath is the page URL's path component.
	URLPath string

	// OwnerSourceFile is the owner frame's source file hint, or "".
	OwnerSourceFile string

	// StackSourceFiles are all source file hints in the frame stack,
	// nearest-first.
	StackSourceFiles []string

	// OwnerInputNames are the owner frame's input names in order.
	OwnerInputNames []string
}

// FrameworkGuess names the detected framework plus optional page/layout
// source hints.
type FrameworkGuess struct {
	Name         string `json:"name"`
	PageSource   string `json:"pageSource,omitempty"`
	LayoutSource string `json:"layoutSource,omitempty"`
}

// Framework names produced by the default strategy.
const (
	FrameworkNextApp        = "next-app"
	FrameworkNextPages      = "next-pages"
	FrameworkReactRouter    = "react-router"
	FrameworkTanstackRouter = "tanstack-router"
	FrameworkUnknown        = "unknown"
)

// DataSourceHint is one guess at where the element's data comes from.
type DataSourceHint struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// FrameworkFunc is a single framework-detection strategy. Returning nil
// passes the decision to the next strategy in order.
type FrameworkFunc func(ev Evidence) *FrameworkGuess

// DataSourceFunc is a single data-source-detection strategy.
type DataSourceFunc func(ev Evidence) []DataSourceHint

// DetectFramework runs strategies in order and returns the first non-nil
// guess. When every strategy passes, the guess is FrameworkUnknown.
func DetectFramework(ev Evidence, strategies []FrameworkFunc) FrameworkGuess {
	for _, s := range strategies {
		if g := s(ev); g != nil {
			return *g
		}
	}
	return FrameworkGuess{Name: FrameworkUnknown}
}

// DetectDataSources concatenates every strategy's hints in order. The
// result is never empty: with no hints it is exactly one unknown hint.
func DetectDataSources(ev Evidence, strategies []DataSourceFunc) []DataSourceHint {
	var hints []DataSourceHint
	for _, s := range strategies {
		hints = append(hints, s(ev)...)
	}
	if len(hints) == 0 {
		return []DataSourceHint{{Kind: "unknown"}}
	}
	return hints
}

// PathFramework is the default framework strategy: it classifies by
// substring of the frame-stack source paths.
func PathFramework(ev Evidence) *FrameworkGuess {
	paths := ev.StackSourceFiles
	if len(paths) == 0 && ev.OwnerSourceFile != "" {
		paths = []string{ev.OwnerSourceFile}
	}

	var g *FrameworkGuess
	for _, p := range paths {
		switch {
		case strings.Contains(p, "/app/"):
			g = pick(g, FrameworkNextApp)
		case strings.Contains(p, "/pages/"):
			g = pick(g, FrameworkNextPages)
		case strings.Contains(p, "react-router"):
			g = pick(g, FrameworkReactRouter)
		case strings.Contains(p, "tanstack"):
			g = pick(g, FrameworkTanstackRouter)
		}
	}
	if g == nil {
		return nil
	}

	for _, p := range paths {
		base := p[strings.LastIndexByte(p, '/')+1:]
		stem, _, _ := strings.Cut(base, ".")
		switch stem {
		case "layout", "_app":
			if g.LayoutSource == "" {
				g.LayoutSource = p
			}
		case "page", "index":
			if g.PageSource == "" {
				g.PageSource = p
			}
		}
	}
	return g
}

func pick(g *FrameworkGuess, name string) *FrameworkGuess {
	if g != nil {
		return g
	}
	return &FrameworkGuess{Name: name}
}

// InputNameDataSources is the default data-source strategy: it pattern
// matches the owner frame's input names.
func InputNameDataSources(ev Evidence) []DataSourceHint {
	var hints []DataSourceHint
	for _, name := range ev.OwnerInputNames {
		lower := strings.ToLower(name)
		switch {
		case strings.Contains(lower, "query"):
			hints = append(hints, DataSourceHint{Kind: "query-hook", Detail: name})
		case strings.Contains(lower, "swr"):
			hints = append(hints, DataSourceHint{Kind: "swr", Detail: name})
		case strings.Contains(lower, "fetch"):
			hints = append(hints, DataSourceHint{Kind: "fetch", Detail: name})
		case lower == "data" || strings.HasSuffix(lower, "data") ||
			lower == "items" || lower == "results" || lower == "rows":
			hints = append(hints, DataSourceHint{Kind: "props-data", Detail: name})
		}
	}
	return hints
}

// RouteGuess is a reconstructed route pattern with captured params.
type RouteGuess struct {
	Pattern string            `json:"pattern"`
	Params  map[string]string `json:"params,omitempty"`
}

// literalSegment matches the short lowercase segments kept verbatim in a
// guessed route pattern.
var literalSegment = regexp.MustCompile(`^[a-z-]{1,12}$`)

var numericSegment = regexp.MustCompile(`^[0-9]+$`)

// GuessRoute reconstructs a route pattern from a concrete URL path when the
// framework is app- or pages-router-like. Purely numeric segments and
// mixed-case/long segments become indexed placeholders captured as params;
// short lowercase segments stay literal. Returns nil for frameworks where
// path-pattern guessing does not apply.
func GuessRoute(path string, framework string) *RouteGuess {
	if framework != FrameworkNextApp && framework != FrameworkNextPages {
		return nil
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		return &RouteGuess{Pattern: "/"}
	}

	out := make([]string, len(segments))
	params := make(map[string]string)
	n := 0
	for i, seg := range segments {
		switch {
		case numericSegment.MatchString(seg):
			n++
			name := "param" + strconv.Itoa(n)
			out[i] = "[" + name + "]"
			params[name] = seg
		case literalSegment.MatchString(seg):
			out[i] = seg
		default:
			n++
			name := "param" + strconv.Itoa(n)
			out[i] = "[" + name + "]"
			params[name] = seg
		}
	}
	g := &RouteGuess{Pattern: "/" + strings.Join(out, "/")}
	if len(params) > 0 {
		g.Params = params
	}
	return g
}

// DefaultFrameworks is the built-in framework strategy order.
func DefaultFrameworks() []FrameworkFunc {
	return []FrameworkFunc{PathFramework}
}

// DefaultDataSources is the built-in data-source strategy order.
func DefaultDataSources() []DataSourceFunc {
	return []DataSourceFunc{InputNameDataSources}
}
