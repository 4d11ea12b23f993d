package strategy_test

import (
	"reflect"
	"testing"

	"github.com/grabr-ai/grabr/strategy"
)

func TestFirstFrameworkStrategyWins(t *testing.T) {
	calls := []string{}
	first := func(ev strategy.Evidence) *strategy.FrameworkGuess {
		calls = append(calls, "first")
		return &strategy.FrameworkGuess{Name: "custom"}
	}
	second := func(ev strategy.Evidence) *strategy.FrameworkGuess {
		calls = append(calls, "second")
		return &strategy.FrameworkGuess{Name: "never"}
	}

	got := strategy.DetectFramework(strategy.Evidence{}, []strategy.FrameworkFunc{first, second})
	if got.Name != "custom" {
		t.Fatalf("winner = %q, want custom", got.Name)
	}
	if !reflect.DeepEqual(calls, []string{"first"}) {
		t.Fatalf("later strategies were consulted: %v", calls)
	}
}

func TestFrameworkFallsBackToUnknown(t *testing.T) {
	pass := func(ev strategy.Evidence) *strategy.FrameworkGuess { return nil }
	got := strategy.DetectFramework(strategy.Evidence{}, []strategy.FrameworkFunc{pass, pass})
	if got.Name != strategy.FrameworkUnknown {
		t.Fatalf("got %q, want unknown", got.Name)
	}
}

func TestPathFramework(t *testing.T) {
	cases := []struct {
		name  string
		paths []string
		want  string
	}{
		{"app router", []string{"src/app/settings/page.tsx"}, strategy.FrameworkNextApp},
		{"pages router", []string{"src/pages/settings.tsx"}, strategy.FrameworkNextPages},
		{"react router", []string{"node_modules/react-router-dom/index.js"}, strategy.FrameworkReactRouter},
		{"tanstack", []string{"node_modules/@tanstack/react-router/x.js"}, strategy.FrameworkTanstackRouter},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := strategy.PathFramework(strategy.Evidence{StackSourceFiles: c.paths})
			if g == nil || g.Name != c.want {
				t.Fatalf("got %+v, want %q", g, c.want)
			}
		})
	}

	if g := strategy.PathFramework(strategy.Evidence{StackSourceFiles: []string{"src/components/Button.tsx"}}); g != nil {
		t.Fatalf("unclassifiable path should pass, got %+v", g)
	}
}

func TestPathFrameworkPageLayoutHints(t *testing.T) {
	g := strategy.PathFramework(strategy.Evidence{StackSourceFiles: []string{
		"src/app/settings/page.tsx",
		"src/app/layout.tsx",
	}})
	if g == nil || g.Name != strategy.FrameworkNextApp {
		t.Fatalf("guess = %+v", g)
	}
	if g.PageSource != "src/app/settings/page.tsx" {
		t.Fatalf("page source = %q", g.PageSource)
	}
	if g.LayoutSource != "src/app/layout.tsx" {
		t.Fatalf("layout source = %q", g.LayoutSource)
	}
}

func TestDataSourcesAreAdditive(t *testing.T) {
	a := func(ev strategy.Evidence) []strategy.DataSourceHint {
		return []strategy.DataSourceHint{{Kind: "a1"}, {Kind: "a2"}}
	}
	b := func(ev strategy.Evidence) []strategy.DataSourceHint {
		return []strategy.DataSourceHint{{Kind: "b1"}}
	}
	got := strategy.DetectDataSources(strategy.Evidence{}, []strategy.DataSourceFunc{a, b})
	want := []strategy.DataSourceHint{{Kind: "a1"}, {Kind: "a2"}, {Kind: "b1"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDataSourcesNeverEmpty(t *testing.T) {
	got := strategy.DetectDataSources(strategy.Evidence{}, nil)
	if len(got) != 1 || got[0].Kind != "unknown" {
		t.Fatalf("got %v, want exactly one unknown hint", got)
	}

	empty := func(ev strategy.Evidence) []strategy.DataSourceHint { return nil }
	got = strategy.DetectDataSources(strategy.Evidence{}, []strategy.DataSourceFunc{empty})
	if len(got) != 1 || got[0].Kind != "unknown" {
		t.Fatalf("got %v, want exactly one unknown hint", got)
	}
}

func TestInputNameDataSources(t *testing.T) {
	ev := strategy.Evidence{OwnerInputNames: []string{"userQuery", "items", "refetchUsers", "onClick"}}
	got := strategy.InputNameDataSources(ev)
	kinds := make([]string, len(got))
	for i, h := range got {
		kinds[i] = h.Kind
	}
	want := []string{"query-hook", "props-data", "fetch"}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
}

func TestGuessRoute(t *testing.T) {
	g := strategy.GuessRoute("/orders/12345/items/AbCdEfGh123", strategy.FrameworkNextApp)
	if g == nil {
		t.Fatal("expected a route guess")
	}
	if g.Pattern != "/orders/[param1]/items/[param2]" {
		t.Fatalf("pattern = %q", g.Pattern)
	}
	if g.Params["param1"] != "12345" || g.Params["param2"] != "AbCdEfGh123" {
		t.Fatalf("params = %v", g.Params)
	}
}

func TestGuessRouteRootAndNonRouting(t *testing.T) {
	if g := strategy.GuessRoute("/", strategy.FrameworkNextPages); g == nil || g.Pattern != "/" {
		t.Fatalf("root guess = %+v", g)
	}
	if g := strategy.GuessRoute("/a/1", strategy.FrameworkReactRouter); g != nil {
		t.Fatalf("non app/pages framework must not guess routes, got %+v", g)
	}
	if g := strategy.GuessRoute("/a/1", strategy.FrameworkUnknown); g != nil {
		t.Fatalf("unknown framework must not guess routes, got %+v", g)
	}
}
