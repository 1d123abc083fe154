package course

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Assignment is a gradeable task with an HTML description.
type Assignment struct {
	Identifier        string
	Title             string
	Description       string
	PointsPossible    float64
	SubmissionTypes   string // comma separated
	AllowedExtensions string // comma separated
	GradingType       string
	DueAt             string
	UnlockAt          string
	LockAt            string
	WorkflowState     string
	GroupRef          string
	Rubric            *Rubric
}

// AssignmentGroup is a gradebook grouping for assignments and quizzes.
type AssignmentGroup struct {
	Identifier  string
	Title       string
	Position    int
	GroupWeight float64
}

// NewAssignment creates a published assignment with the platform defaults.
func NewAssignment(ids *IDSource, title, description string) *Assignment {
	return &Assignment{
		Identifier:      ids.Identifier(),
		Title:           title,
		Description:     description,
		PointsPossible:  100,
		SubmissionTypes: "online_upload",
		GradingType:     "points",
		WorkflowState:   "published",
	}
}

// AttachRubric associates a rubric with the assignment.
func (a *Assignment) AttachRubric(r *Rubric) *Assignment {
	a.Rubric = r
	return a
}

// HTML renders the assignment description document stored next to the
// settings file in the package.
func (a *Assignment) HTML() string {
	var sb strings.Builder
	sb.WriteString("<html>\n<head>\n")
	sb.WriteString("<meta http-equiv=\"Content-Type\" content=\"text/html; charset=utf-8\"/>\n")
	fmt.Fprintf(&sb, "<title>Assignment: %s</title>\n", a.Title)
	sb.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", a.Title)
	sb.WriteString(a.Description)
	sb.WriteString("\n</body>\n</html>")
	return sb.String()
}

// SettingsDocument builds the assignment settings file.
func (a *Assignment) SettingsDocument() *etree.Document {
	doc, root := newCanvasDocument("assignment", a.Identifier)

	setText(root, "title", a.Title)
	setText(root, "due_at", a.DueAt)
	setText(root, "unlock_at", a.UnlockAt)
	setText(root, "lock_at", a.LockAt)
	setBool(root, "module_locked", false)
	setText(root, "workflow_state", a.WorkflowState)
	if a.GroupRef != "" {
		setText(root, "assignment_group_identifierref", a.GroupRef)
	}
	root.CreateElement("assignment_overrides")
	setText(root, "allowed_extensions", a.AllowedExtensions)
	setBool(root, "has_group_category", false)
	setFloat(root, "points_possible", a.PointsPossible)
	setText(root, "grading_type", a.GradingType)
	setBool(root, "all_day", false)
	setText(root, "submission_types", a.SubmissionTypes)
	setInt(root, "position", 1)
	setBool(root, "turnitin_enabled", false)
	setBool(root, "vericite_enabled", false)
	setInt(root, "peer_review_count", 0)
	setBool(root, "peer_reviews", false)
	setBool(root, "automatic_peer_reviews", false)
	setBool(root, "anonymous_peer_reviews", false)
	setBool(root, "grade_group_students_individually", false)
	setBool(root, "freeze_on_copy", false)
	setBool(root, "omit_from_final_grade", false)
	setBool(root, "intra_group_peer_reviews", false)
	setBool(root, "only_visible_to_overrides", false)
	setBool(root, "post_to_sis", false)
	setBool(root, "moderated_grading", false)
	setInt(root, "grader_count", 0)
	setBool(root, "grader_comments_visible_to_graders", true)
	setBool(root, "anonymous_grading", false)
	setBool(root, "graders_anonymous_to_graders", false)
	setBool(root, "grader_names_visible_to_final_grader", true)
	setBool(root, "anonymous_instructor_annotations", false)
	if a.Rubric != nil {
		setText(root, "rubric_identifierref", a.Rubric.Identifier)
	}

	postPolicy := root.CreateElement("post_policy")
	setBool(postPolicy, "post_manually", false)

	return doc
}

// AppendXML emits the gradebook group entry into an assignmentGroups
// document.
func (g *AssignmentGroup) AppendXML(parent *etree.Element) {
	el := parent.CreateElement("assignmentGroup")
	el.CreateAttr("identifier", g.Identifier)
	setText(el, "title", g.Title)
	setInt(el, "position", g.Position)
	setFloat(el, "group_weight", g.GroupWeight)
}
