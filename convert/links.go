package convert

import (
	"regexp"
	"strings"
)

// Links inside authored pages point at local files so the template previews
// in a browser; the import format wants its own URI schemes instead.
// localToCanvas and canvasToLocal translate between the two.
var (
	resourceHrefRe = regexp.MustCompile(`(href|src)="(?:\.\./)?web_resources/([^"]+)"`)
	pageHrefRe     = regexp.MustCompile(`href="([^"]+\.html)"`)

	fileBaseRe  = regexp.MustCompile(`\$IMS-CC-FILEBASE\$/([^"'>\s]+)`)
	wikiRefRe   = regexp.MustCompile(`\$WIKI_REFERENCE\$/pages/([^"'>\s]+)`)
	objectRefRe = regexp.MustCompile(`\$CANVAS_OBJECT_REFERENCE\$/pages/([^"'>\s]+)`)
	moduleRefRe = regexp.MustCompile(`\$CANVAS_OBJECT_REFERENCE\$/modules/([^"'>\s]+)`)
)

// localToCanvas rewrites local links to import-format URIs:
//
//	../web_resources/f.pdf  ->  $IMS-CC-FILEBASE$/web_resources/f.pdf
//	web_resources/f.pdf     ->  $IMS-CC-FILEBASE$/web_resources/f.pdf
//	other-page.html         ->  $CANVAS_OBJECT_REFERENCE$/pages/<title-slug>
//
// slugs maps page file name stems to their title slugs. Already-converted
// and external links are left alone. Page links to unknown stems fall back
// to the stem itself as the slug.
func localToCanvas(doc string, slugs map[string]string) string {
	doc = resourceHrefRe.ReplaceAllStringFunc(doc, func(m string) string {
		parts := resourceHrefRe.FindStringSubmatch(m)
		return parts[1] + `="$IMS-CC-FILEBASE$/web_resources/` + parts[2] + `"`
	})

	doc = pageHrefRe.ReplaceAllStringFunc(doc, func(m string) string {
		if strings.Contains(m, "$") || strings.Contains(m, "http://") || strings.Contains(m, "https://") {
			return m
		}
		ref := pageHrefRe.FindStringSubmatch(m)[1]
		stem := strings.TrimSuffix(ref, ".html")
		slug, ok := slugs[stem]
		if !ok {
			slug = stem
		}
		return `href="$CANVAS_OBJECT_REFERENCE$/pages/` + slug + `"`
	})

	return doc
}

// canvasToLocal is the inverse used by extraction. filenames maps page
// identifiers, title slugs and original file name stems to the local file
// name stem. Page references which cannot be resolved become a visible
// [PAGE:...] marker, module references become [MODULE:...] since modules
// have no local representation.
func canvasToLocal(doc string, filenames map[string]string) string {
	doc = fileBaseRe.ReplaceAllString(doc, "../web_resources/$1")

	replacePage := func(re *regexp.Regexp, fallbackMarker bool) {
		doc = re.ReplaceAllStringFunc(doc, func(m string) string {
			ref := re.FindStringSubmatch(m)[1]
			if name, ok := filenames[ref]; ok {
				return name + ".html"
			}
			if fallbackMarker {
				return "[PAGE:" + ref + "]"
			}
			return ref + ".html"
		})
	}
	replacePage(wikiRefRe, true)
	replacePage(objectRefRe, false)

	doc = moduleRefRe.ReplaceAllString(doc, "[MODULE:$1]")

	return doc
}
