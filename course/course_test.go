package course

import (
	"strings"
	"testing"
)

func testIDs() *IDSource {
	return NewIDSourceFrom(strings.NewReader(strings.Repeat("course-test-seed-", 64)))
}

func TestIDSource_Identifier(t *testing.T) {
	ids := testIDs()

	id := ids.Identifier()
	if !strings.HasPrefix(id, "i") {
		t.Errorf("identifier %q lacks the i prefix", id)
	}
	if len(id) != 33 {
		t.Errorf("identifier %q has length %d, want 33", id, len(id))
	}
	if strings.Contains(id, "-") {
		t.Errorf("identifier %q contains dashes", id)
	}
	if id == ids.Identifier() {
		t.Error("consecutive identifiers collide")
	}
}

func TestIDSource_Deterministic(t *testing.T) {
	a := testIDs()
	b := testIDs()
	for i := 0; i < 5; i++ {
		if x, y := a.Identifier(), b.Identifier(); x != y {
			t.Fatalf("identifier %d differs: %q vs %q", i, x, y)
		}
	}
}

func TestNew_CourseCodeFallback(t *testing.T) {
	c := New(testIDs(), "Intro to Pottery", "")
	if c.CourseCode != "Intro to Pottery" {
		t.Errorf("course code = %q, want title fallback", c.CourseCode)
	}
	if c.License != "private" {
		t.Errorf("license = %q, want private", c.License)
	}
	if c.DefaultView != "modules" {
		t.Errorf("default view = %q, want modules", c.DefaultView)
	}
}

func TestCourse_FrontPage(t *testing.T) {
	c := New(testIDs(), "Course", "C-1")
	c.NewPage("Welcome", "<p>hi</p>")
	if c.FrontPage() != nil {
		t.Fatal("front page reported before one is marked")
	}

	home := c.NewPage("Home", "<p>home</p>")
	home.FrontPage = true
	got := c.FrontPage()
	if got == nil || got.Title != "Home" {
		t.Fatalf("front page = %+v, want the Home page", got)
	}
}

func TestCourse_DefaultAssignmentGroup(t *testing.T) {
	c := New(testIDs(), "Course", "C-1")

	g := c.DefaultAssignmentGroup()
	if g.Title != "Assignments" {
		t.Errorf("default group title = %q", g.Title)
	}
	if c.DefaultAssignmentGroup() != g {
		t.Error("default group is minted more than once")
	}
	if len(c.AssignmentGroups) != 1 {
		t.Errorf("group count = %d, want 1", len(c.AssignmentGroups))
	}
}

func TestCourse_AddAssignmentWiresRubric(t *testing.T) {
	c := New(testIDs(), "Course", "C-1")

	r := NewRubric(c.IDs(), "Essay rubric")
	r.AddCriterion("Clarity", "", 10, nil)

	a := NewAssignment(c.IDs(), "Essay", "<p>write</p>")
	a.AttachRubric(r)
	c.AddAssignment(a, nil)

	if a.GroupRef != c.DefaultAssignmentGroup().Identifier {
		t.Error("assignment not assigned to the default group")
	}
	if len(c.Rubrics) != 1 {
		t.Fatalf("rubric count = %d, want the attached rubric collected once", len(c.Rubrics))
	}

	c.AddAssignment(NewAssignment(c.IDs(), "Essay 2", "").AttachRubric(r), nil)
	if len(c.Rubrics) != 1 {
		t.Errorf("rubric count = %d after reuse, want 1", len(c.Rubrics))
	}
}

func TestWikiPage_Slug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Welcome Aboard", "welcome-aboard"},
		{"Data & Code: Part 1", "data-and-code-part-1"},
		{"  Trimmed  ", "trimmed"},
	}
	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			p := NewWikiPage(testIDs(), tc.title, "")
			if got := p.Slug(); got != tc.want {
				t.Errorf("slug = %q, want %q", got, tc.want)
			}
			if got := p.Filename(); got != tc.want+".html" {
				t.Errorf("filename = %q", got)
			}
		})
	}
}

func TestWikiPage_HTML(t *testing.T) {
	p := NewWikiPage(testIDs(), "Welcome", "<p>Body text</p>")
	p.FrontPage = true
	p.ExtraHead = `<style>p { color: red; }</style>`

	html := p.HTML()
	for _, want := range []string{
		`<title>Welcome</title>`,
		`name="identifier" content="` + p.Identifier + `"`,
		`name="workflow_state" content="active"`,
		`name="front_page" content="true"`,
		`<style>p { color: red; }</style>`,
		`<p>Body text</p>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page HTML missing %q", want)
		}
	}
}

func TestModule_Positions(t *testing.T) {
	c := New(testIDs(), "Course", "C-1")
	m1 := c.NewModule("Week 1")
	m2 := c.NewModule("Week 2")
	if m1.Position != 1 || m2.Position != 2 {
		t.Errorf("module positions = %d, %d", m1.Position, m2.Position)
	}

	p := c.NewPage("Reading", "")
	a := NewAssignment(c.IDs(), "Homework", "")
	c.AddAssignment(a, nil)
	q := NewQuiz(c.IDs(), "Check-in")
	c.AddQuiz(q, nil)

	m1.AddPage(p)
	m1.AddAssignment(a)
	m1.AddQuiz(q)

	wantTypes := []string{ContentTypeWikiPage, ContentTypeAssignment, ContentTypeQuiz}
	if len(m1.Items) != len(wantTypes) {
		t.Fatalf("item count = %d", len(m1.Items))
	}
	for i, item := range m1.Items {
		if item.ContentType != wantTypes[i] {
			t.Errorf("item %d content type = %q, want %q", i, item.ContentType, wantTypes[i])
		}
		if item.Position != i+1 {
			t.Errorf("item %d position = %d", i, item.Position)
		}
	}
	if m1.Items[0].IdentifierRef != p.Identifier {
		t.Error("page item does not reference the page identifier")
	}
}

func TestAssignment_SettingsDocument(t *testing.T) {
	ids := testIDs()
	a := NewAssignment(ids, "Essay", "<p>write</p>")
	a.PointsPossible = 40
	a.SubmissionTypes = "online_text_entry,online_upload"
	a.DueAt = "2026-09-15T23:59:00"
	a.GroupRef = "g123"

	r := NewRubric(ids, "Essay rubric")
	r.AddCriterion("Clarity", "Is it clear?", 25, []RubricRating{
		{Description: "Full Marks", Points: 25},
		{Description: "No Marks", Points: 0},
	})
	a.AttachRubric(r)

	doc := a.SettingsDocument()
	root := doc.Root()
	if root.Tag != "assignment" {
		t.Fatalf("root tag = %q", root.Tag)
	}
	if got := root.SelectAttrValue("identifier", ""); got != a.Identifier {
		t.Errorf("identifier attr = %q", got)
	}
	checks := map[string]string{
		"title":                           "Essay",
		"points_possible":                 "40",
		"submission_types":                "online_text_entry,online_upload",
		"due_at":                          "2026-09-15T23:59:00",
		"assignment_group_identifierref":  "g123",
		"rubric_identifierref":            r.Identifier,
		"workflow_state":                  "published",
		"grading_type":                    "points",
	}
	for tag, want := range checks {
		el := root.FindElement(tag)
		if el == nil {
			t.Errorf("missing element %s", tag)
			continue
		}
		if el.Text() != want {
			t.Errorf("%s = %q, want %q", tag, el.Text(), want)
		}
	}
}

func TestAssignment_SettingsDocumentOmitsUnsetDates(t *testing.T) {
	a := NewAssignment(testIDs(), "Essay", "")
	root := a.SettingsDocument().Root()
	for _, tag := range []string{"assignment_group_identifierref", "rubric_identifierref"} {
		if root.FindElement(tag) != nil {
			t.Errorf("element %s present without a value", tag)
		}
	}
}

func TestRubric_PointsPossible(t *testing.T) {
	r := NewRubric(testIDs(), "Rubric")
	r.AddCriterion("A", "", 10, nil)
	r.AddCriterion("B", "", 15.5, nil)
	if got := r.PointsPossible(); got != 25.5 {
		t.Errorf("points possible = %v, want 25.5", got)
	}
}

func TestRubric_DefaultRatings(t *testing.T) {
	r := NewRubric(testIDs(), "Rubric")
	c := r.AddCriterion("Clarity", "", 20, nil)
	if len(c.Ratings) != 2 {
		t.Fatalf("rating count = %d, want the full/no marks pair", len(c.Ratings))
	}
	if c.Ratings[0].Points != 20 || c.Ratings[1].Points != 0 {
		t.Errorf("rating points = %v, %v", c.Ratings[0].Points, c.Ratings[1].Points)
	}
}
