package convert

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ccb/config"
	"ccb/state"
)

// buildTestTemplate lays out a small but complete course template on disk.
func buildTestTemplate(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "demo-course")

	writeTemplateFile(t, dir, "course.json", `{
  "title": "Demo Course",
  "course_code": "DEMO101",
  "default_view": "modules"
}`)

	writeTemplateFile(t, dir, "styles/main.css", "h1 { color: navy }")

	writeTemplateFile(t, dir, "wiki_content/01-home.html", `<html><head>
<title>ignored</title>
<link rel="stylesheet" href="../styles/main.css"/>
</head><body>
<!-- CANVAS_META
title: Course Home
home: true
-->
<h1>Welcome</h1>
<p><a href="02-topic.html">Next topic</a></p>
</body></html>`)

	writeTemplateFile(t, dir, "wiki_content/02-topic.html", `<html><body>
<!-- CANVAS_META
title: First Topic
-->
<p><img src="../web_resources/diagram.png"/></p>
<p><a href="../web_resources/notes.txt">Notes</a></p>
</body></html>`)

	writeTemplateFile(t, dir, "web_resources/notes.txt", "plain text notes")
	// minimal valid PNG header so content sniffing has something to chew on
	if err := os.WriteFile(filepath.Join(dir, "web_resources", "diagram.png"),
		[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0644); err != nil {
		t.Fatal(err)
	}

	writeTemplateFile(t, dir, "quizzes/week-1.json", `{
  "title": "Week 1 Quiz",
  "questions": [
    {"type": "multiple_choice", "text": "Pick", "answers": [{"text": "A", "correct": true}, {"text": "B"}]}
  ]
}`)

	writeTemplateFile(t, dir, "rubrics/essay-rubric.json", `{
  "title": "Essay Rubric",
  "criteria": [{"description": "Effort", "points": 10}]
}`)

	writeTemplateFile(t, dir, "assignments/essay.json", `{
  "title": "Essay",
  "points_possible": 40,
  "rubric": "essay-rubric",
  "assignment_group": "Papers"
}`)

	writeTemplateFile(t, dir, "modules.json", `{
  "modules": [
    {"title": "Week 1", "items": [
      {"type": "page", "id": "01-home"},
      {"type": "page", "id": "02-topic"},
      {"type": "quiz", "id": "week-1"},
      {"type": "assignment", "id": "essay"}
    ]}
  ]
}`)

	return dir
}

func testBuildContext(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	env.Cfg = cfg
	env.Log = testLogger(t)
	return ctx, env
}

func readZipEntry(t *testing.T, zr *zip.ReadCloser, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		r, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("entry %s not found in package", name)
	return ""
}

func TestBuildTemplate(t *testing.T) {
	template := buildTestTemplate(t)
	dst := t.TempDir()
	ctx, env := testBuildContext(t)

	if err := buildTemplate(ctx, template, dst, env.Log); err != nil {
		t.Fatalf("buildTemplate() error = %v", err)
	}

	pkg := filepath.Join(dst, "DEMO101.imscc")
	zr, err := zip.OpenReader(pkg)
	if err != nil {
		t.Fatalf("unable to open package: %v", err)
	}
	defer zr.Close()

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}

	for _, want := range []string{
		"imsmanifest.xml",
		"course_settings/course_settings.xml",
		"course_settings/canvas_export.txt",
		"course_settings/module_meta.xml",
		"course_settings/assignment_groups.xml",
		"course_settings/rubrics.xml",
		"wiki_content/course-home.html",
		"wiki_content/first-topic.html",
		"web_resources/diagram.png",
		"web_resources/notes.txt",
	} {
		if !names[want] {
			t.Errorf("package is missing %s", want)
		}
	}

	var quizEntries int
	for name := range names {
		if strings.HasPrefix(name, "non_cc_assessments/") && strings.HasSuffix(name, ".xml.qti") {
			quizEntries++
		}
	}
	if quizEntries != 1 {
		t.Errorf("QTI entries = %d, want 1", quizEntries)
	}

	home := readZipEntry(t, zr, "wiki_content/course-home.html")
	if strings.Contains(home, "CANVAS_META") {
		t.Error("meta comment left in page body")
	}
	if !strings.Contains(home, `style="color: navy"`) {
		t.Error("stylesheet not inlined into page")
	}
	if !strings.Contains(home, "$CANVAS_OBJECT_REFERENCE$/pages/first-topic") {
		t.Error("page link not converted to object reference")
	}

	topic := readZipEntry(t, zr, "wiki_content/first-topic.html")
	if !strings.Contains(topic, "$IMS-CC-FILEBASE$/web_resources/notes.txt") {
		t.Error("resource link not converted to file base reference")
	}
	if !strings.Contains(topic, "$IMS-CC-FILEBASE$/web_resources/diagram.png") {
		t.Error("image source not converted to file base reference")
	}

	manifest := readZipEntry(t, zr, "imsmanifest.xml")
	if !strings.Contains(manifest, "Demo Course") {
		t.Error("manifest is missing the course title")
	}
	if !strings.Contains(manifest, "Week 1") {
		t.Error("manifest organization is missing the module")
	}
}

func TestBuildTemplate_MissingWikiContent(t *testing.T) {
	ctx, env := testBuildContext(t)

	err := buildTemplate(ctx, t.TempDir(), t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "wiki_content") {
		t.Errorf("expected wiki_content error, got %v", err)
	}
}

func TestBuildTemplate_NoPages(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "wiki_content"), 0755); err != nil {
		t.Fatal(err)
	}
	ctx, env := testBuildContext(t)

	err := buildTemplate(ctx, dir, t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "no pages") {
		t.Errorf("expected no pages error, got %v", err)
	}
}

func TestBuildTemplate_RefusesOverwrite(t *testing.T) {
	template := buildTestTemplate(t)
	dst := t.TempDir()
	ctx, env := testBuildContext(t)

	if err := buildTemplate(ctx, template, dst, env.Log); err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	if err := buildTemplate(ctx, template, dst, env.Log); err == nil {
		t.Fatal("expected error for existing output file")
	}

	env.Overwrite = true
	if err := buildTemplate(ctx, template, dst, env.Log); err != nil {
		t.Fatalf("overwrite build failed: %v", err)
	}
}

func TestBuildTemplate_RoundTrip(t *testing.T) {
	template := buildTestTemplate(t)
	dst := t.TempDir()
	ctx, env := testBuildContext(t)

	if err := buildTemplate(ctx, template, dst, env.Log); err != nil {
		t.Fatalf("buildTemplate() error = %v", err)
	}

	extracted := filepath.Join(t.TempDir(), "extracted")
	if err := extractPackage(ctx, filepath.Join(dst, "DEMO101.imscc"), extracted, env.Log); err != nil {
		t.Fatalf("extractPackage() error = %v", err)
	}

	info, err := loadCourseInfo(extracted)
	if err != nil {
		t.Fatalf("loadCourseInfo() error = %v", err)
	}
	if info.Title != "Demo Course" || info.CourseCode != "DEMO101" {
		t.Errorf("course info lost in round trip: %+v", info)
	}

	page, err := os.ReadFile(filepath.Join(extracted, "wiki_content", "first-topic.html"))
	if err != nil {
		t.Fatalf("extracted page missing: %v", err)
	}
	if !strings.Contains(string(page), "../web_resources/notes.txt") {
		t.Errorf("resource link not converted back to local form: %s", page)
	}
	if !strings.Contains(string(page), "CANVAS_META") {
		t.Errorf("meta comment not reinserted: %s", page)
	}

	if _, err := os.Stat(filepath.Join(extracted, "web_resources", "notes.txt")); err != nil {
		t.Errorf("web resource not carried over: %v", err)
	}
	if _, err := os.Stat(filepath.Join(extracted, "modules.json")); err != nil {
		t.Errorf("modules.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(extracted, "README.md")); err != nil {
		t.Errorf("README.md not written: %v", err)
	}
}
