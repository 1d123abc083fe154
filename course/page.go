package course

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// WikiPage is a single content page. Content is the inner-body HTML only;
// ExtraHead carries any head markup preserved from the source document and
// is re-emitted after the page metadata.
type WikiPage struct {
	Identifier    string
	Title         string
	Content       string
	WorkflowState string
	EditingRoles  string
	FrontPage     bool
	ExtraHead     string
}

// NewWikiPage creates an active, teacher-editable page.
func NewWikiPage(ids *IDSource, title, content string) *WikiPage {
	return &WikiPage{
		Identifier:    ids.Identifier(),
		Title:         title,
		Content:       content,
		WorkflowState: "active",
		EditingRoles:  "teachers",
	}
}

// Slug returns the URL slug derived from the page title, matching how the
// platform slugifies titles for page references.
func (p *WikiPage) Slug() string {
	return slug.Make(p.Title)
}

// Filename returns the page file name inside the package.
func (p *WikiPage) Filename() string {
	return p.Slug() + ".html"
}

// HTML renders the page document with its metadata head block.
func (p *WikiPage) HTML() string {
	var sb strings.Builder
	sb.WriteString("<html>\n<head>\n")
	sb.WriteString("<meta http-equiv=\"Content-Type\" content=\"text/html; charset=utf-8\"/>\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", p.Title)
	fmt.Fprintf(&sb, "<meta name=\"identifier\" content=%q/>\n", p.Identifier)
	fmt.Fprintf(&sb, "<meta name=\"editing_roles\" content=%q/>\n", p.EditingRoles)
	fmt.Fprintf(&sb, "<meta name=\"workflow_state\" content=%q/>\n", p.WorkflowState)
	if p.FrontPage {
		sb.WriteString("<meta name=\"front_page\" content=\"true\"/>\n")
	}
	if p.ExtraHead != "" {
		sb.WriteString(p.ExtraHead)
		sb.WriteString("\n")
	}
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(p.Content)
	sb.WriteString("\n</body>\n</html>")
	return sb.String()
}
