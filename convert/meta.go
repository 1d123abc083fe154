// Package convert implements the conversion pipelines: building a Common
// Cartridge package from a template directory and extracting a package back
// into an editable template.
package convert

import (
	"regexp"
	"strings"
)

// Pages carry their metadata in an HTML comment so the source files stay
// previewable in a browser:
//
//	<!-- CANVAS_META
//	title: My Page Title
//	home: true
//	-->
var (
	metaBlockRe = regexp.MustCompile(`(?is)<!--\s*CANVAS_META\s*\n(.*?)\n\s*-->`)
	headRe      = regexp.MustCompile(`(?is)<head[^>]*>(.*?)</head>`)
	bodyRe      = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	bodyOpenRe  = regexp.MustCompile(`(?i)<body[^>]*>`)
)

// pageMeta is the parsed metadata comment, values kept as written.
type pageMeta map[string]string

// parsePageMeta extracts key: value pairs from the first metadata comment in
// the document. Lines without a colon are ignored. Returns an empty map when
// there is no comment.
func parsePageMeta(doc string) pageMeta {
	meta := pageMeta{}
	m := metaBlockRe.FindStringSubmatch(doc)
	if m == nil {
		return meta
	}
	for _, line := range strings.Split(m[1], "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta
}

// stripPageMeta removes the metadata comment from the document.
func stripPageMeta(doc string) string {
	return metaBlockRe.ReplaceAllString(doc, "")
}

// Title returns the page title, falling back to one derived from the source
// file name ("my-page_one" becomes "My Page One").
func (m pageMeta) Title(filenameStem string) string {
	if t, ok := m["title"]; ok && t != "" {
		return t
	}
	return titleizeStem(filenameStem)
}

// Home reports whether the page is marked as the course home page. Only
// "true" (any case) and "1" count as set.
func (m pageMeta) Home() bool {
	v, ok := m["home"]
	if !ok {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func titleizeStem(stem string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// extractHeadBody splits a full HTML document into the head inner markup and
// the body inner markup. A document without a body tag is returned whole as
// the body, so fragment-only sources keep working.
func extractHeadBody(doc string) (head, body string) {
	if m := headRe.FindStringSubmatch(doc); m != nil {
		head = strings.TrimSpace(m[1])
	}
	if m := bodyRe.FindStringSubmatch(doc); m != nil {
		body = strings.TrimSpace(m[1])
	} else {
		body = strings.TrimSpace(doc)
	}
	return head, body
}

// insertPageMeta places a metadata comment right after the body open tag,
// used during extraction for pages which do not carry one. Documents without
// a body tag are returned unchanged.
func insertPageMeta(doc, title string) string {
	if strings.Contains(doc, "<!-- CANVAS_META") {
		return doc
	}
	loc := bodyOpenRe.FindStringIndex(doc)
	if loc == nil {
		return doc
	}
	comment := "\n<!-- CANVAS_META\ntitle: " + title + "\n-->\n\n"
	return doc[:loc[1]] + comment + doc[loc[1]:]
}
