package css

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Inliner rewrites an HTML document in a single forward pass, resolving the
// rule cascade for every opened element and flattening the result into its
// style attribute. Stylesheet link tags are removed from the output.
type Inliner struct {
	rules []Rule
	log   *zap.Logger
}

// NewInliner creates an inliner over a parsed rule list. Rule order is the
// stylesheet source order and is used to break specificity ties.
func NewInliner(rules []Rule, log *zap.Logger) *Inliner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inliner{rules: rules, log: log.Named("css-inliner")}
}

// Inline processes the document text and returns the rewritten document.
// The scan keeps a stack of open elements so descendant and child selectors
// can be evaluated against the ancestry of each tag as it is opened. Close
// tags pop the stack only when they match its top, which keeps the scan
// tolerant of unbalanced markup.
func (in *Inliner) Inline(document string) string {
	var (
		out   strings.Builder
		stack []Element
	)
	out.Grow(len(document) + len(document)/4)

	z := html.NewTokenizer(strings.NewReader(document))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out.String()

		case html.StartTagToken:
			tok := z.Token()
			if isStylesheetLink(tok) {
				continue
			}
			el := makeElement(tok)
			in.renderTag(&out, tok, in.computedStyle(tok, el, stack), false)
			stack = append(stack, el)

		case html.SelfClosingTagToken:
			tok := z.Token()
			if isStylesheetLink(tok) {
				continue
			}
			// computed against the current ancestry; no stack entry persists
			el := makeElement(tok)
			in.renderTag(&out, tok, in.computedStyle(tok, el, stack), true)

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "link" {
				continue
			}
			if n := len(stack); n > 0 && stack[n-1].Tag == tag {
				stack = stack[:n-1]
			}
			out.WriteString("</")
			out.WriteString(tag)
			out.WriteByte('>')

		case html.TextToken:
			out.WriteString(escapeText(string(z.Text())))

		case html.CommentToken, html.DoctypeToken:
			out.Write(z.Raw())
		}
	}
}

// computedStyle resolves the cascade for one element: rules sorted ascending
// by specificity with source order breaking ties, folded property by
// property, then the element's own inline style overlaid on top. Returns ""
// when no rule matches (the tag is then reproduced with its original
// attributes).
func (in *Inliner) computedStyle(tok html.Token, el Element, ancestors []Element) string {
	type match struct {
		spec Specificity
		rule *Rule
	}

	var matches []match
	for i := range in.rules {
		r := &in.rules[i]
		if Matches(r.Selector, el, ancestors) {
			matches = append(matches, match{ComputeSpecificity(r.Selector), r})
		}
	}
	if len(matches) == 0 {
		return ""
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].spec.Less(matches[j].spec) })

	decls := NewDeclarations()
	for _, m := range matches {
		for e := m.rule.Declarations.Front(); e != nil; e = e.Next() {
			decls.Set(e.Key, e.Value)
		}
	}

	// inline declarations win over any stylesheet-derived value
	if inline := attrValue(tok, "style"); inline != "" {
		for e := parseDeclarationList(inline).Front(); e != nil; e = e.Next() {
			decls.Set(e.Key, e.Value)
		}
	}

	in.log.Debug("Resolved element style",
		zap.String("tag", el.Tag), zap.Int("rules", len(matches)), zap.Int("properties", decls.Len()))
	return serializeDeclarations(decls)
}

// renderTag reproduces an open tag, replacing the style attribute value when
// the cascade produced one (or appending the attribute when absent). All
// other attributes keep their source order and values.
func (in *Inliner) renderTag(out *strings.Builder, tok html.Token, style string, selfClosing bool) {
	out.WriteByte('<')
	out.WriteString(tok.Data)

	styleWritten := false
	for _, a := range tok.Attr {
		val := a.Val
		if a.Key == "style" && style != "" {
			val = style
			styleWritten = true
		}
		out.WriteByte(' ')
		out.WriteString(a.Key)
		out.WriteString(`="`)
		out.WriteString(escapeAttr(val))
		out.WriteByte('"')
	}
	if style != "" && !styleWritten {
		out.WriteString(` style="`)
		out.WriteString(escapeAttr(style))
		out.WriteByte('"')
	}

	if selfClosing {
		out.WriteString(" />")
	} else {
		out.WriteByte('>')
	}
}

func makeElement(tok html.Token) Element {
	return Element{
		Tag:     tok.Data,
		ID:      attrValue(tok, "id"),
		Classes: strings.Fields(attrValue(tok, "class")),
	}
}

func attrValue(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func isStylesheetLink(tok html.Token) bool {
	return tok.Data == "link" && attrValue(tok, "rel") == "stylesheet"
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

var attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
