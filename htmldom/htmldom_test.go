package htmldom_test

import (
	"testing"

	"github.com/grabr-ai/grabr/htmldom"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Checkout — Acme</title></head>
<body>
  <main>
    <form id="checkout">
      <input name="email" data-testid="email-input">
      <button class="primary large" type="submit">Pay now</button>
      <button class="ghost">Cancel</button>
    </form>
  </main>
</body>
</html>`

func parse(t *testing.T) *htmldom.Doc {
	t.Helper()
	d, err := htmldom.ParseString(page, "https://shop.example/checkout")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestDocumentMetadata(t *testing.T) {
	d := parse(t)
	if got := d.URL(); got != "https://shop.example/checkout" {
		t.Fatalf("URL = %q", got)
	}
	if got := d.Title(); got != "Checkout — Acme" {
		t.Fatalf("Title = %q", got)
	}
}

func TestFindBySelector(t *testing.T) {
	d := parse(t)

	cases := []struct {
		selector string
		wantTag  string
	}{
		{"#checkout", "form"},
		{`[data-testid="email-input"]`, "input"},
		{"button.primary.large", "button"},
		{"form button", "button"},
		{"button:nth-of-type(2)", "button"},
	}
	for _, c := range cases {
		el, err := d.FindBySelector(c.selector)
		if err != nil {
			t.Fatalf("FindBySelector(%q): %v", c.selector, err)
		}
		if el.Tag() != c.wantTag {
			t.Fatalf("FindBySelector(%q) tag = %q, want %q", c.selector, el.Tag(), c.wantTag)
		}
	}

	if _, err := d.FindBySelector("#missing"); err == nil {
		t.Fatal("expected error for non-matching selector")
	}
}

func TestNthOfTypeDistinguishesSiblings(t *testing.T) {
	d := parse(t)
	second, err := d.FindBySelector("button:nth-of-type(2)")
	if err != nil {
		t.Fatal(err)
	}
	if got := second.Classes(); len(got) != 1 || got[0] != "ghost" {
		t.Fatalf("nth-of-type(2) classes = %v, want [ghost]", got)
	}
}

func TestElementAccessors(t *testing.T) {
	d := parse(t)
	btn, err := d.FindBySelector("button.primary")
	if err != nil {
		t.Fatal(err)
	}

	if btn.Tag() != "button" {
		t.Fatalf("Tag = %q", btn.Tag())
	}
	if btn.Attr("type") != "submit" {
		t.Fatalf("Attr(type) = %q", btn.Attr("type"))
	}
	if btn.Text() != "Pay now" {
		t.Fatalf("Text = %q", btn.Text())
	}
	if !btn.Connected() {
		t.Fatal("button should be connected")
	}
	if btn.ComputedStyle("cursor") != "" {
		t.Fatal("parsed documents have no computed styles")
	}
	if p := btn.Parent(); p == nil || p.Tag() != "form" {
		t.Fatalf("Parent = %v", p)
	}
}

func TestWrapIdentity(t *testing.T) {
	d := parse(t)
	a, _ := d.FindBySelector("#checkout")
	b, _ := d.FindBySelector("form")
	if a != b {
		t.Fatal("wrapping the same node must produce equal elements")
	}
}

func TestChildren(t *testing.T) {
	d := parse(t)
	form, _ := d.FindBySelector("#checkout")
	kids := form.Children()
	if len(kids) != 3 {
		t.Fatalf("got %d children, want 3", len(kids))
	}
	if kids[0].Tag() != "input" || kids[1].Tag() != "button" {
		t.Fatalf("unexpected child order: %s, %s", kids[0].Tag(), kids[1].Tag())
	}
}
