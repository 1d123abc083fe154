package course

import (
	"strconv"

	"github.com/beevik/etree"
)

// Quiz is an assessment with its settings and question list.
type Quiz struct {
	Identifier         string
	Title              string
	Description        string
	QuizType           string // assignment, practice_quiz, graded_survey, survey
	ScoringPolicy      string // keep_highest, keep_latest, keep_average
	AllowedAttempts    int
	ShuffleQuestions   bool
	ShuffleAnswers     bool
	TimeLimit          *int // minutes
	DueAt              string
	UnlockAt           string
	LockAt             string
	ShowCorrectAnswers bool
	OneQuestionAtATime bool
	CantGoBack         bool
	WorkflowState      string
	GroupRef           string

	// PointsOverride pins the total; when nil the total is the sum of
	// question points.
	PointsOverride *float64

	Questions []Question

	ids *IDSource
}

// Question is one quiz question variant. The set of variants is closed
// within this package; each one knows how to emit its QTI item.
type Question interface {
	Ident() string
	Points() float64
	appendQTI(section *etree.Element)
}

// NewQuiz creates a published quiz with the platform defaults.
func NewQuiz(ids *IDSource, title string) *Quiz {
	return &Quiz{
		Identifier:      ids.Identifier(),
		Title:           title,
		QuizType:        "assignment",
		ScoringPolicy:   "keep_highest",
		AllowedAttempts: 1,
		WorkflowState:   "published",
		ids:             ids,
	}
}

// AddQuestion appends a question to the quiz.
func (q *Quiz) AddQuestion(question Question) *Quiz {
	q.Questions = append(q.Questions, question)
	return q
}

// PointsPossible is the pinned total when set, otherwise the sum of
// question points.
func (q *Quiz) PointsPossible() float64 {
	if q.PointsOverride != nil {
		return *q.PointsOverride
	}
	var total float64
	for _, question := range q.Questions {
		total += question.Points()
	}
	return total
}

// MetaDocument builds the assessment settings file, including the embedded
// shadow assignment the platform expects for gradeable quizzes.
func (q *Quiz) MetaDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("quiz")
	root.CreateAttr("identifier", q.Identifier)
	root.CreateAttr("xmlns", canvasNS)
	root.CreateAttr("xmlns:xsi", xsiNS)
	root.CreateAttr("xsi:schemaLocation", canvasNS+" https://canvas.instructure.com/xsd/cccv1p0.xsd")

	setText(root, "title", q.Title)
	setText(root, "description", q.Description)
	setText(root, "due_at", q.DueAt)
	setText(root, "lock_at", q.LockAt)
	setText(root, "unlock_at", q.UnlockAt)
	setBool(root, "shuffle_questions", q.ShuffleQuestions)
	setBool(root, "shuffle_answers", q.ShuffleAnswers)
	setText(root, "calculator_type", "none")
	setText(root, "scoring_policy", q.ScoringPolicy)
	setText(root, "hide_results", "")
	setText(root, "quiz_type", q.QuizType)
	setFloat(root, "points_possible", q.PointsPossible())
	setBool(root, "require_lockdown_browser", false)
	setBool(root, "require_lockdown_browser_for_results", false)
	setBool(root, "require_lockdown_browser_monitor", false)
	root.CreateElement("lockdown_browser_monitor_data")
	setBool(root, "show_correct_answers", q.ShowCorrectAnswers)
	setBool(root, "anonymous_submissions", false)
	setBool(root, "could_be_locked", false)
	setBool(root, "disable_timer_autosubmission", false)
	if q.TimeLimit != nil {
		setInt(root, "time_limit", *q.TimeLimit)
	}
	setInt(root, "allowed_attempts", q.AllowedAttempts)
	setBool(root, "build_on_last_attempt", false)
	setBool(root, "one_question_at_a_time", q.OneQuestionAtATime)
	setBool(root, "cant_go_back", q.CantGoBack)
	setBool(root, "available", false)
	setBool(root, "one_time_results", false)
	setBool(root, "show_correct_answers_last_attempt", false)
	setBool(root, "only_visible_to_overrides", false)
	setBool(root, "module_locked", false)
	root.CreateElement("allow_clear_mc_selection")
	setBool(root, "disable_document_access", false)
	setBool(root, "result_view_restricted", false)

	assignment := root.CreateElement("assignment")
	assignment.CreateAttr("identifier", q.ids.Identifier())
	setText(assignment, "title", q.Title)
	setText(assignment, "due_at", q.DueAt)
	setText(assignment, "lock_at", q.LockAt)
	setText(assignment, "unlock_at", q.UnlockAt)
	setBool(assignment, "module_locked", false)
	setText(assignment, "workflow_state", q.WorkflowState)
	assignment.CreateElement("assignment_overrides")
	setText(assignment, "quiz_identifierref", q.Identifier)
	assignment.CreateElement("allowed_extensions")
	setBool(assignment, "has_group_category", false)
	setFloat(assignment, "points_possible", q.PointsPossible())
	setText(assignment, "grading_type", "points")
	setBool(assignment, "all_day", false)
	setText(assignment, "submission_types", "online_quiz")
	setInt(assignment, "position", 1)
	setBool(assignment, "turnitin_enabled", false)
	setBool(assignment, "vericite_enabled", false)
	setInt(assignment, "peer_review_count", 0)
	setBool(assignment, "peer_reviews", false)
	setBool(assignment, "automatic_peer_reviews", false)
	setBool(assignment, "anonymous_peer_reviews", false)
	setBool(assignment, "grade_group_students_individually", false)
	setBool(assignment, "freeze_on_copy", false)
	setBool(assignment, "omit_from_final_grade", false)
	setBool(assignment, "intra_group_peer_reviews", false)
	setBool(assignment, "only_visible_to_overrides", false)
	setBool(assignment, "post_to_sis", false)
	setBool(assignment, "moderated_grading", false)
	setInt(assignment, "grader_count", 0)
	setBool(assignment, "grader_comments_visible_to_graders", true)
	setBool(assignment, "anonymous_grading", false)
	setBool(assignment, "graders_anonymous_to_graders", false)
	setBool(assignment, "grader_names_visible_to_final_grader", true)
	setBool(assignment, "anonymous_instructor_annotations", false)

	postPolicy := assignment.CreateElement("post_policy")
	setBool(postPolicy, "post_manually", false)

	if q.GroupRef != "" {
		setText(assignment, "assignment_group_identifierref", q.GroupRef)
	}

	return doc
}

// ShellDocument builds the QTI shell referenced from the manifest; the full
// question content lives in the non-CC assessment file.
func (q *Quiz) ShellDocument() *etree.Document {
	doc, assessment := q.newQTIDocument(qtiNS + " http://www.imsglobal.org/profile/cc/ccv1p1/ccv1p1_qtiasiv1p2p1_v1p0.xsd")

	meta := assessment.CreateElement("qtimetadata")
	qtiMetaField(meta, "cc_profile", "cc.exam.v0p1")
	qtiMetaField(meta, "qmd_assessmenttype", "Examination")
	qtiMetaField(meta, "qmd_scoretype", "Percentage")
	qtiMetaField(meta, "cc_maxattempts", strconv.Itoa(q.AllowedAttempts))

	section := assessment.CreateElement("section")
	section.CreateAttr("ident", "root_section")

	return doc
}

// QTIDocument builds the full assessment with every question item.
func (q *Quiz) QTIDocument() *etree.Document {
	doc, assessment := q.newQTIDocument(qtiNS + " http://www.imsglobal.org/xsd/ims_qtiasiv1p2p1.xsd")

	meta := assessment.CreateElement("qtimetadata")
	qtiMetaField(meta, "cc_maxattempts", strconv.Itoa(q.AllowedAttempts))

	section := assessment.CreateElement("section")
	section.CreateAttr("ident", "root_section")

	for _, question := range q.Questions {
		question.appendQTI(section)
	}
	return doc
}

func (q *Quiz) newQTIDocument(schemaLocation string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("questestinterop")
	root.CreateAttr("xmlns", qtiNS)
	root.CreateAttr("xmlns:xsi", xsiNS)
	root.CreateAttr("xsi:schemaLocation", schemaLocation)

	assessment := root.CreateElement("assessment")
	assessment.CreateAttr("ident", q.Identifier)
	assessment.CreateAttr("title", q.Title)
	return doc, assessment
}
