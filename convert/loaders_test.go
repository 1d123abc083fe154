package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ccb/course"
)

func testIDs() *course.IDSource {
	return course.NewIDSourceFrom(strings.NewReader(strings.Repeat("convert-test-seed-", 256)))
}

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func writeTemplateFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCourseInfo(t *testing.T) {
	t.Run("from file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "my-course")
		writeTemplateFile(t, dir, "course.json", `{
  "title": "Intro to Data",
  "course_code": "DATA101",
  "default_view": "wiki",
  "license": "public_domain"
}`)

		info, err := loadCourseInfo(dir)
		if err != nil {
			t.Fatalf("loadCourseInfo() error = %v", err)
		}
		if info.Title != "Intro to Data" || info.CourseCode != "DATA101" {
			t.Errorf("unexpected info: %+v", info)
		}
		if info.DefaultView != "wiki" || info.License != "public_domain" {
			t.Errorf("unexpected info: %+v", info)
		}
	})

	t.Run("defaults from directory name", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "intro-to-programming_2026")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}

		info, err := loadCourseInfo(dir)
		if err != nil {
			t.Fatalf("loadCourseInfo() error = %v", err)
		}
		if info.Title != "Intro To Programming 2026" {
			t.Errorf("Title = %q", info.Title)
		}
		if info.CourseCode != "INTROTOPROGRAMMING20" {
			t.Errorf("CourseCode = %q", info.CourseCode)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplateFile(t, dir, "course.json", "{not json")
		if _, err := loadCourseInfo(dir); err == nil {
			t.Error("expected error for invalid course.json")
		}
	})
}

func TestLoadModules(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		modules, err := loadModules(t.TempDir())
		if err != nil {
			t.Fatalf("loadModules() error = %v", err)
		}
		if modules != nil {
			t.Errorf("expected nil, got %v", modules)
		}
	})

	t.Run("typed items", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplateFile(t, dir, "modules.json", `{
  "modules": [
    {"title": "Week 1", "items": [
      {"type": "page", "id": "overview"},
      {"type": "quiz", "identifier": "check-in"},
      {"type": "assignment", "id": "essay"}
    ]}
  ]
}`)

		modules, err := loadModules(dir)
		if err != nil {
			t.Fatalf("loadModules() error = %v", err)
		}
		if len(modules) != 1 || len(modules[0].Items) != 3 {
			t.Fatalf("unexpected modules: %+v", modules)
		}
		if modules[0].Items[1].Ref() != "check-in" {
			t.Errorf("identifier spelling not accepted: %+v", modules[0].Items[1])
		}
	})

	t.Run("legacy pages format", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplateFile(t, dir, "modules.json", `{
  "modules": [{"title": "Old", "pages": ["one", "two"]}]
}`)

		modules, err := loadModules(dir)
		if err != nil {
			t.Fatalf("loadModules() error = %v", err)
		}
		items := modules[0].Items
		if len(items) != 2 || items[0].Type != "page" || items[0].Ref() != "one" {
			t.Errorf("legacy pages not converted: %+v", items)
		}
	})
}

func TestLoadQuiz(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplateFile(t, dir, "check-in.json", `{
  "title": "Check-in Quiz",
  "description": "<p>Weekly check.</p>",
  "settings": {
    "quiz_type": "practice_quiz",
    "allowed_attempts": 3,
    "scoring_policy": "keep_latest",
    "shuffle_answers": true,
    "time_limit": 30
  },
  "questions": [
    {"type": "multiple_choice", "text": "Pick one", "points": 2,
     "answers": [{"text": "A", "correct": true}, {"text": "B"}]},
    {"type": "true_false", "text": "Sky is blue", "correct_answer": true},
    {"type": "fill_in_blank", "text": "Capital of France?", "answers": ["Paris", "paris"]},
    {"type": "fill_in_multiple_blanks", "text": "[a] and [b]",
     "blanks": {"a": ["x"], "b": ["y"]}},
    {"type": "multiple_dropdowns", "text": "[color]",
     "dropdowns": {"color": [{"text": "red", "correct": true}, {"text": "blue"}]}},
    {"type": "matching", "text": "Match",
     "matches": [{"prompt": "Japan", "answer": "Tokyo"}], "distractors": ["Paris"]},
    {"type": "numerical_answer", "text": "Pi?", "exact_answer": 3.14, "margin": 0.01},
    {"type": "formula_question", "text": "x+y", "formula": "x+y",
     "variables": {"x": {"min": 1, "max": 5}, "y": {"min": 0, "max": 2}}},
    {"type": "essay_question", "text": "Discuss"},
    {"type": "text_only_question", "text": "Just text"}
  ]
}`)

	quiz, err := loadQuiz(path, testIDs(), testLogger(t))
	if err != nil {
		t.Fatalf("loadQuiz() error = %v", err)
	}

	if quiz.Title != "Check-in Quiz" {
		t.Errorf("Title = %q", quiz.Title)
	}
	if quiz.QuizType != "practice_quiz" || quiz.ScoringPolicy != "keep_latest" {
		t.Errorf("settings not applied: %+v", quiz)
	}
	if quiz.AllowedAttempts != 3 {
		t.Errorf("AllowedAttempts = %d", quiz.AllowedAttempts)
	}
	if quiz.TimeLimit == nil || *quiz.TimeLimit != 30 {
		t.Errorf("TimeLimit = %v", quiz.TimeLimit)
	}
	if !quiz.ShuffleAnswers || quiz.ShuffleQuestions {
		t.Errorf("shuffle flags wrong: %+v", quiz)
	}
	if !quiz.ShowCorrectAnswers {
		t.Error("ShowCorrectAnswers should default to true")
	}
	if len(quiz.Questions) != 10 {
		t.Fatalf("questions = %d, want 10", len(quiz.Questions))
	}
	// first question carries its explicit points, the rest default to 1
	if quiz.Questions[0].Points() != 2 {
		t.Errorf("question points = %v, want 2", quiz.Questions[0].Points())
	}
	if quiz.Questions[1].Points() != 1 {
		t.Errorf("default points = %v, want 1", quiz.Questions[1].Points())
	}
	// 2 + 1*8 scored questions, text only contributes nothing
	if got := quiz.PointsPossible(); got != 10 {
		t.Errorf("PointsPossible() = %v, want 10", got)
	}
}

func TestLoadQuiz_BlankOrderPreserved(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplateFile(t, dir, "q.json", `{
  "title": "Order",
  "questions": [
    {"type": "fill_in_multiple_blanks", "text": "t",
     "blanks": {"zeta": ["1"], "alpha": ["2"], "mid": ["3"]}}
  ]
}`)

	quiz, err := loadQuiz(path, testIDs(), testLogger(t))
	if err != nil {
		t.Fatalf("loadQuiz() error = %v", err)
	}

	q, ok := quiz.Questions[0].(*course.FillInMultipleBlanksQuestion)
	if !ok {
		t.Fatalf("unexpected question type %T", quiz.Questions[0])
	}
	got := []string{q.Blanks[0].Name, q.Blanks[1].Name, q.Blanks[2].Name}
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("blank order = %v, want %v", got, want)
		}
	}
}

func TestLoadQuiz_UnknownQuestionSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplateFile(t, dir, "q.json", `{
  "title": "Mixed",
  "questions": [
    {"type": "hologram", "text": "?"},
    {"type": "essay_question", "text": "ok"}
  ]
}`)

	quiz, err := loadQuiz(path, testIDs(), testLogger(t))
	if err != nil {
		t.Fatalf("loadQuiz() error = %v", err)
	}
	if len(quiz.Questions) != 1 {
		t.Errorf("questions = %d, want 1 (unknown type skipped)", len(quiz.Questions))
	}
}

func TestLoadAssignment(t *testing.T) {
	t.Run("inline description and lists", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTemplateFile(t, dir, "assignments/essay.json", `{
  "title": "Final Essay",
  "description": "<p>Write.</p>",
  "points_possible": 40,
  "submission_types": ["online_upload", "online_text_entry"],
  "allowed_extensions": ["pdf", "docx"],
  "grading_type": "percent",
  "due_at": "2026-05-01T23:59:00Z",
  "rubric": "essay-rubric",
  "assignment_group": "Papers"
}`)

		loaded, err := loadAssignment(path, dir, testIDs(), nil, testLogger(t))
		if err != nil {
			t.Fatalf("loadAssignment() error = %v", err)
		}
		a := loaded.Assignment
		if a.Title != "Final Essay" || a.PointsPossible != 40 {
			t.Errorf("unexpected assignment: %+v", a)
		}
		if a.SubmissionTypes != "online_upload,online_text_entry" {
			t.Errorf("SubmissionTypes = %q", a.SubmissionTypes)
		}
		if a.AllowedExtensions != "pdf,docx" {
			t.Errorf("AllowedExtensions = %q", a.AllowedExtensions)
		}
		if a.GradingType != "percent" || a.DueAt != "2026-05-01T23:59:00Z" {
			t.Errorf("unexpected assignment: %+v", a)
		}
		if loaded.RubricRef != "essay-rubric" || loaded.GroupName != "Papers" {
			t.Errorf("references not carried: %+v", loaded)
		}
	})

	t.Run("preformatted strings accepted", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTemplateFile(t, dir, "assignments/a.json", `{
  "title": "A",
  "submission_types": "on_paper"
}`)

		loaded, err := loadAssignment(path, dir, testIDs(), nil, testLogger(t))
		if err != nil {
			t.Fatalf("loadAssignment() error = %v", err)
		}
		if loaded.Assignment.SubmissionTypes != "on_paper" {
			t.Errorf("SubmissionTypes = %q", loaded.Assignment.SubmissionTypes)
		}
	})

	t.Run("description file with stylesheet", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplateFile(t, dir, "styles/main.css", "p { color: red; }")
		writeTemplateFile(t, dir, "assignments/task.html", `<html><head>
<link rel="stylesheet" href="../styles/main.css"/>
</head><body><p>Task text</p></body></html>`)
		path := writeTemplateFile(t, dir, "assignments/task.json", `{
  "title": "Task",
  "description_file": "task.html"
}`)

		loaded, err := loadAssignment(path, dir, testIDs(), nil, testLogger(t))
		if err != nil {
			t.Fatalf("loadAssignment() error = %v", err)
		}
		desc := loaded.Assignment.Description
		if !strings.Contains(desc, `style="color: red"`) || !strings.Contains(desc, "Task text") {
			t.Errorf("styles not inlined: %q", desc)
		}
		if strings.Contains(desc, "<link") {
			t.Errorf("stylesheet link not removed: %q", desc)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTemplateFile(t, dir, "assignments/min.json", `{}`)

		loaded, err := loadAssignment(path, dir, testIDs(), nil, testLogger(t))
		if err != nil {
			t.Fatalf("loadAssignment() error = %v", err)
		}
		a := loaded.Assignment
		if a.Title != "Untitled Assignment" || a.PointsPossible != 100 {
			t.Errorf("defaults wrong: %+v", a)
		}
		if a.SubmissionTypes != "online_upload" || a.GradingType != "points" {
			t.Errorf("defaults wrong: %+v", a)
		}
	})
}

func TestLoadRubric(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplateFile(t, dir, "essay-rubric.json", `{
  "criteria": [
    {"description": "Clarity", "points": 10,
     "ratings": [
       {"description": "Excellent", "points": 10},
       {"description": "Poor", "points": 2}
     ]},
    {"description": "Citations", "points": 5}
  ]
}`)

	rubric, err := loadRubric(path, testIDs())
	if err != nil {
		t.Fatalf("loadRubric() error = %v", err)
	}
	if rubric.Title != "Essay Rubric" {
		t.Errorf("Title fallback = %q, want %q", rubric.Title, "Essay Rubric")
	}
	if rubric.PointsPossible() != 15 {
		t.Errorf("PointsPossible() = %v, want 15", rubric.PointsPossible())
	}
	if len(rubric.Criteria[0].Ratings) != 2 {
		t.Errorf("explicit ratings lost: %+v", rubric.Criteria[0])
	}
	// criterion without ratings gets the standard pair
	if len(rubric.Criteria[1].Ratings) != 2 || rubric.Criteria[1].Ratings[0].Description != "Full Marks" {
		t.Errorf("default ratings missing: %+v", rubric.Criteria[1])
	}
}
