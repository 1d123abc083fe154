package css

import (
	"testing"
)

func TestComputeSpecificity(t *testing.T) {
	cases := []struct {
		selector string
		want     Specificity
	}{
		{"p", Specificity{0, 0, 1}},
		{".note", Specificity{0, 1, 0}},
		{"#box", Specificity{1, 0, 0}},
		{"div#box", Specificity{1, 0, 1}},
		{"div.a.b", Specificity{0, 2, 1}},
		{"ul li a", Specificity{0, 0, 3}},
		{".parent > .child", Specificity{0, 2, 0}},
		{"a[href]", Specificity{0, 1, 1}},
		{"h1, #main .x", Specificity{1, 1, 0}},
		{"", Specificity{0, 0, 0}},
	}

	for _, c := range cases {
		if got := ComputeSpecificity(c.selector); got != c.want {
			t.Errorf("specificity of %q: got %+v, want %+v", c.selector, got, c.want)
		}
	}
}

func TestSpecificityLess(t *testing.T) {
	order := []Specificity{
		{0, 0, 0},
		{0, 0, 1},
		{0, 0, 5},
		{0, 1, 0},
		{0, 2, 0},
		{1, 0, 0},
		{1, 0, 1},
		{2, 0, 0},
	}
	for i := 1; i < len(order); i++ {
		if !order[i-1].Less(order[i]) {
			t.Errorf("%+v should sort before %+v", order[i-1], order[i])
		}
		if order[i].Less(order[i-1]) {
			t.Errorf("%+v should not sort before %+v", order[i], order[i-1])
		}
	}
}

func TestMatches(t *testing.T) {
	anchor := Element{Tag: "a", Classes: []string{"child"}}
	ancestors := []Element{
		{Tag: "body"},
		{Tag: "div", Classes: []string{"parent"}},
		{Tag: "span"},
	}

	cases := []struct {
		name     string
		selector string
		want     bool
	}{
		{"type", "a", true},
		{"wrong type", "p", false},
		{"class", ".child", true},
		{"type and class", "a.child", true},
		{"wrong class", ".missing", false},
		{"descendant any depth", ".parent .child", true},
		{"descendant by type", "div a", true},
		{"descendant not present", ".other .child", false},
		{"child needs immediate parent", ".parent > .child", false},
		{"child immediate", "span > .child", true},
		{"chain through levels", "body div span a", true},
		{"chain deeper than stack", "html body div span a", false},
		{"group matches any branch", "p, .child", true},
		{"group matches none", "p, .missing", false},
		{"attribute selector never gates", "a[href]", true},
		{"unknown id", "#nope", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Matches(c.selector, anchor, ancestors); got != c.want {
				t.Errorf("Matches(%q): got %v, want %v", c.selector, got, c.want)
			}
		})
	}
}

func TestMatchesID(t *testing.T) {
	el := Element{Tag: "div", ID: "box", Classes: []string{"wide"}}
	for sel, want := range map[string]bool{
		"#box":      true,
		"div#box":   true,
		"span#box":  false,
		"#other":    false,
		"div.wide":  true,
		"#box.wide": true,
	} {
		if got := Matches(sel, el, nil); got != want {
			t.Errorf("Matches(%q): got %v, want %v", sel, got, want)
		}
	}
}
