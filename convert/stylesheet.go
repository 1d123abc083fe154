package convert

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"ccb/css"
)

var stylesheetLinkRe = regexp.MustCompile(`(?i)<link\s+rel="stylesheet"\s+href="([^"]+)"`)

// inlineStyles resolves the stylesheets a document links to, parses them
// together with any extra stylesheet configured for the whole course, and
// rewrites the document with computed styles flattened into style
// attributes. Link tags are removed by the rewrite. A document without
// stylesheet links and without extra styles passes through untouched.
//
// Link hrefs are written relative to the page file, so leading "../"
// segments are dropped and the rest resolved against the template root.
func inlineStyles(doc string, templateRoot string, extra []byte, log *zap.Logger) string {
	refs := stylesheetLinkRe.FindAllStringSubmatch(doc, -1)
	if len(refs) == 0 && len(extra) == 0 {
		return doc
	}

	parser := css.NewParser(log)

	var rules []css.Rule
	for _, ref := range refs {
		href := ref[1]
		for strings.HasPrefix(href, "../") {
			href = href[3:]
		}
		path := filepath.Join(templateRoot, filepath.FromSlash(href))
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Unable to read stylesheet, skipping", zap.String("href", ref[1]), zap.Error(err))
			continue
		}
		rules = append(rules, parser.Parse(data, href)...)
	}
	if len(extra) > 0 {
		rules = append(rules, parser.Parse(extra, "extra stylesheet")...)
	}

	return css.NewInliner(rules, log).Inline(doc)
}
