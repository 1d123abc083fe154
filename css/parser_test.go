package css

import (
	"testing"
)

func TestParseStylesheet(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []Rule
	}{
		{
			name:  "single rule",
			input: "p { color: black; }",
			want: []Rule{
				rule("p", "color", "black"),
			},
		},
		{
			name:  "two rules keep source order",
			input: "p { color: black; } .note { color: orange; }",
			want: []Rule{
				rule("p", "color", "black"),
				rule(".note", "color", "orange"),
			},
		},
		{
			name:  "grouped selectors stay one rule",
			input: "h1, h2 .x { margin: 0 }",
			want: []Rule{
				rule("h1, h2 .x", "margin", "0"),
			},
		},
		{
			name:  "comments stripped",
			input: "/* heading */ p { /* inner */ color: red }",
			want: []Rule{
				rule("p", "color", "red"),
			},
		},
		{
			name:  "at-rule block skipped",
			input: "@media screen { p { color: red } } div { margin: 0 }",
			want: []Rule{
				rule("div", "margin", "0"),
			},
		},
		{
			name:  "import skipped",
			input: "@import \"other.css\";\nspan { font-weight: bold }",
			want: []Rule{
				rule("span", "font-weight", "bold"),
			},
		},
		{
			name:  "empty declaration block dropped",
			input: "p { } div { padding: 1em }",
			want: []Rule{
				rule("div", "padding", "1em"),
			},
		},
		{
			name:  "multi-token value preserved",
			input: "#box { border: 1px solid black }",
			want: []Rule{
				rule("#box", "border", "1px solid black"),
			},
		},
		{
			name:  "later property wins within one rule",
			input: "p { color: red; color: blue }",
			want: []Rule{
				rule("p", "color", "blue"),
			},
		},
	}

	p := NewParser(nil)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := p.Parse([]byte(c.input), c.name)
			if len(got) != len(c.want) {
				t.Fatalf("rule count mismatch: got %d, want %d (%+v)", len(got), len(c.want), got)
			}
			for i := range got {
				if got[i].Selector != c.want[i].Selector {
					t.Errorf("rule %d selector: got %q, want %q", i, got[i].Selector, c.want[i].Selector)
				}
				if g, w := serializeDeclarations(got[i].Declarations), serializeDeclarations(c.want[i].Declarations); g != w {
					t.Errorf("rule %d declarations: got %q, want %q", i, g, w)
				}
			}
		})
	}
}

func TestParseDeclarationList(t *testing.T) {
	got := parseDeclarationList(" color: red ; margin :0; bogus ;; padding: 1em 2em ")
	if s := serializeDeclarations(got); s != "color: red; margin: 0; padding: 1em 2em" {
		t.Errorf("unexpected declarations: %q", s)
	}
}

func rule(selector string, kv ...string) Rule {
	decls := NewDeclarations()
	for i := 0; i+1 < len(kv); i += 2 {
		decls.Set(kv[i], kv[i+1])
	}
	return Rule{Selector: selector, Declarations: decls}
}
