package convert

import (
	"strings"
	"testing"
)

func TestInlineStyles(t *testing.T) {
	root := t.TempDir()
	writeTemplateFile(t, root, "styles/site.css", "h1 { color: navy } p { margin: 0 }")

	doc := `<html><head>
<link rel="stylesheet" href="../styles/site.css"/>
</head><body><h1>Title</h1><p>Body</p></body></html>`

	got := inlineStyles(doc, root, nil, testLogger(t))
	if !strings.Contains(got, `<h1 style="color: navy">`) {
		t.Errorf("h1 style not inlined: %q", got)
	}
	if !strings.Contains(got, `<p style="margin: 0">`) {
		t.Errorf("p style not inlined: %q", got)
	}
	if strings.Contains(got, "<link") {
		t.Errorf("stylesheet link left in output: %q", got)
	}
}

func TestInlineStyles_NoLinksPassThrough(t *testing.T) {
	doc := `<html><body><p>Untouched & unparsed</p></body></html>`
	if got := inlineStyles(doc, t.TempDir(), nil, testLogger(t)); got != doc {
		t.Errorf("document without stylesheets changed: %q", got)
	}
}

func TestInlineStyles_ExtraStylesheet(t *testing.T) {
	doc := `<html><body><p>Body</p></body></html>`

	got := inlineStyles(doc, t.TempDir(), []byte("p { font-size: 12px }"), testLogger(t))
	if !strings.Contains(got, `<p style="font-size: 12px">`) {
		t.Errorf("extra stylesheet not applied: %q", got)
	}
}

func TestInlineStyles_MissingFileSkipped(t *testing.T) {
	root := t.TempDir()
	writeTemplateFile(t, root, "styles/site.css", "p { margin: 0 }")

	doc := `<html><head>
<link rel="stylesheet" href="../styles/nope.css"/>
<link rel="stylesheet" href="../styles/site.css"/>
</head><body><p>Body</p></body></html>`

	got := inlineStyles(doc, root, nil, testLogger(t))
	if !strings.Contains(got, `<p style="margin: 0">`) {
		t.Errorf("surviving stylesheet not applied: %q", got)
	}
}

func TestInlineStyles_CascadeOverride(t *testing.T) {
	root := t.TempDir()
	writeTemplateFile(t, root, "a.css", "p { color: red }")
	writeTemplateFile(t, root, "b.css", "p.note { color: green }")

	doc := `<html><head>
<link rel="stylesheet" href="a.css"/>
<link rel="stylesheet" href="b.css"/>
</head><body><p class="note">Note</p><p>Plain</p></body></html>`

	got := inlineStyles(doc, root, nil, testLogger(t))
	if !strings.Contains(got, `<p class="note" style="color: green">`) {
		t.Errorf("more specific rule did not win: %q", got)
	}
	if !strings.Contains(got, `<p style="color: red">`) {
		t.Errorf("base rule not applied: %q", got)
	}
}
