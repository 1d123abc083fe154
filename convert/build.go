package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ccb/course"
	"ccb/imscc"
	"ccb/state"
)

const (
	wikiContentDir  = "wiki_content"
	webResourcesDir = "web_resources"
	quizzesDir      = "quizzes"
	assignmentsDir  = "assignments"
	rubricsDir      = "rubrics"
)

// Build is the "build" command entry point: template directory in, course
// package out.
func Build(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no template directory has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input template was not found (%s): %w", src, err)
	}
	if !fi.Mode().IsDir() {
		return fmt.Errorf("input template is not a directory (%s)", src)
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	if env.Cfg.Document.StylesheetPath != "" {
		data, err := os.ReadFile(env.Cfg.Document.StylesheetPath)
		if err != nil {
			return fmt.Errorf("unable to read style css from %q: %w", env.Cfg.Document.StylesheetPath, err)
		}
		env.ExtraStyle = data
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return buildTemplate(ctx, src, dst, log)
}

// buildTemplate loads the whole template directory into the course model
// and writes the package. Malformed template items are logged and skipped;
// the build only fails when the template has no usable pages or the package
// cannot be written.
func buildTemplate(ctx context.Context, templateDir, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	wikiDir := filepath.Join(templateDir, wikiContentDir)
	if fi, err := os.Stat(wikiDir); err != nil || !fi.Mode().IsDir() {
		return fmt.Errorf("not a course template, missing %s directory (%s)", wikiContentDir, templateDir)
	}

	info, err := loadCourseInfo(templateDir)
	if err != nil {
		return err
	}

	ids := course.NewIDSource()
	c := course.New(ids, info.Title, info.CourseCode)
	c.DefaultView = env.Cfg.Document.DefaultView
	if info.DefaultView != "" {
		c.DefaultView = info.DefaultView
	}
	c.License = env.Cfg.Document.License
	if info.License != "" {
		c.License = info.License
	}
	log.Info("Course configured", zap.String("title", c.Title), zap.String("course_code", c.CourseCode), zap.String("default_view", c.DefaultView))

	slugs, pagesBySlug, err := buildPages(ctx, c, templateDir, wikiDir, log)
	if err != nil {
		return err
	}
	if len(c.Pages) == 0 {
		return fmt.Errorf("no pages found in template (%s)", wikiDir)
	}

	if err := collectFiles(ctx, c, filepath.Join(templateDir, webResourcesDir), log); err != nil {
		return err
	}

	rubrics := buildRubrics(c, templateDir, log)
	quizzes := buildQuizzes(c, templateDir, log)
	assignments := buildAssignments(c, templateDir, rubrics, env.ExtraStyle, log)
	if err := buildModules(c, templateDir, slugs, pagesBySlug, quizzes, assignments, log); err != nil {
		return err
	}

	outputName := buildOutputPath(c, dst, env)
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	opts := imscc.GenerateOptions{FixZip: env.Cfg.Document.FixZip}
	if err := imscc.Generate(ctx, c, outputName, opts, log); err != nil {
		return fmt.Errorf("unable to generate package: %w", err)
	}

	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", c.Identifier, packageExt), outputName)
	}
	return nil
}

// buildPages processes wiki pages in two passes: the first builds the file
// name to title slug map so cross-page links resolve regardless of
// processing order, the second does the actual conversion.
func buildPages(ctx context.Context, c *course.Course, templateDir, wikiDir string, log *zap.Logger) (map[string]string, map[string]*course.WikiPage, error) {
	env := state.EnvFromContext(ctx)

	files, err := collectHTMLFiles(wikiDir)
	if err != nil {
		return nil, nil, err
	}

	slugs := make(map[string]string, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title := parsePageMeta(string(data)).Title(stem)
		slugs[stem] = slug.Make(title)
	}

	pagesBySlug := make(map[string]*course.WikiPage, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}

		doc := inlineStyles(string(data), templateDir, env.ExtraStyle, log)
		meta := parsePageMeta(doc)

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title := meta.Title(stem)

		doc = localToCanvas(doc, slugs)
		doc = stripPageMeta(doc)
		head, body := extractHeadBody(doc)

		page := c.NewPage(title, body)
		page.ExtraHead = head
		page.FrontPage = meta.Home()
		page.EditingRoles = env.Cfg.Document.EditingRoles
		pagesBySlug[page.Slug()] = page

		log.Debug("Page added", zap.String("title", title), zap.String("file", filepath.Base(path)), zap.Bool("home", page.FrontPage))
	}
	return slugs, pagesBySlug, nil
}

func collectHTMLFiles(wikiDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(wikiDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return natural.Less(files[i], files[j]) })
	return files, nil
}

// collectFiles registers everything under web_resources, skipping dot
// files. Content types are sniffed from file headers with an extension
// fallback.
func collectFiles(ctx context.Context, c *course.Course, filesDir string, log *zap.Logger) error {
	if fi, err := os.Stat(filesDir); err != nil || !fi.Mode().IsDir() {
		return nil
	}

	var files []string
	err := filepath.WalkDir(filesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(files, func(i, j int) bool { return natural.Less(files[i], files[j]) })

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(filesDir, path)
		if err != nil {
			return err
		}
		destination := webResourcesDir + "/" + filepath.ToSlash(rel)
		c.AddFile(path, destination, detectContentType(path))
		log.Debug("File added", zap.String("destination", destination))
	}
	return nil
}

func detectContentType(path string) string {
	if t, err := filetype.MatchFile(path); err == nil && t != filetype.Unknown {
		return t.MIME.Value
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func collectJSONFiles(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool { return natural.Less(matches[i], matches[j]) })
	return matches
}

func buildRubrics(c *course.Course, templateDir string, log *zap.Logger) map[string]*course.Rubric {
	rubrics := map[string]*course.Rubric{}
	for _, path := range collectJSONFiles(filepath.Join(templateDir, rubricsDir)) {
		rubric, err := loadRubric(path, c.IDs())
		if err != nil {
			log.Error("Unable to load rubric", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		rubrics[stem] = rubric
		c.AddRubric(rubric)
		log.Debug("Rubric added", zap.String("title", rubric.Title), zap.Float64("points", rubric.PointsPossible()))
	}
	return rubrics
}

func buildQuizzes(c *course.Course, templateDir string, log *zap.Logger) map[string]*course.Quiz {
	quizzes := map[string]*course.Quiz{}
	for _, path := range collectJSONFiles(filepath.Join(templateDir, quizzesDir)) {
		quiz, err := loadQuiz(path, c.IDs(), log)
		if err != nil {
			log.Error("Unable to load quiz", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		quizzes[stem] = quiz
		c.AddQuiz(quiz, nil)
		log.Debug("Quiz added",
			zap.String("title", quiz.Title), zap.Int("questions", len(quiz.Questions)), zap.Float64("points", quiz.PointsPossible()))
	}
	return quizzes
}

func buildAssignments(c *course.Course, templateDir string, rubrics map[string]*course.Rubric, extraStyle []byte, log *zap.Logger) map[string]*course.Assignment {
	assignments := map[string]*course.Assignment{}
	groups := map[string]*course.AssignmentGroup{}

	for _, path := range collectJSONFiles(filepath.Join(templateDir, assignmentsDir)) {
		loaded, err := loadAssignment(path, templateDir, c.IDs(), extraStyle, log)
		if err != nil {
			log.Error("Unable to load assignment", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}

		if loaded.RubricRef != "" {
			if rubric, ok := rubrics[loaded.RubricRef]; ok {
				loaded.Assignment.AttachRubric(rubric)
			} else {
				log.Warn("Assignment references unknown rubric",
					zap.String("file", filepath.Base(path)), zap.String("rubric", loaded.RubricRef))
			}
		}

		var group *course.AssignmentGroup
		if loaded.GroupName != "" {
			group = groups[loaded.GroupName]
			if group == nil {
				group = c.NewAssignmentGroup(loaded.GroupName, 0)
				groups[loaded.GroupName] = group
			}
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		assignments[stem] = loaded.Assignment
		c.AddAssignment(loaded.Assignment, group)
		log.Debug("Assignment added", zap.String("title", loaded.Assignment.Title), zap.Float64("points", loaded.Assignment.PointsPossible))
	}
	return assignments
}

func buildModules(c *course.Course, templateDir string, slugs map[string]string, pagesBySlug map[string]*course.WikiPage, quizzes map[string]*course.Quiz, assignments map[string]*course.Assignment, log *zap.Logger) error {
	specs, err := loadModules(templateDir)
	if err != nil {
		return err
	}

	for _, spec := range specs {
		module := c.NewModule(spec.Title)
		for _, item := range spec.Items {
			ref := item.Ref()
			switch item.Type {
			case "page":
				titleSlug, known := slugs[ref]
				if !known {
					titleSlug = ref
				}
				if page, ok := pagesBySlug[titleSlug]; ok {
					module.AddPage(page)
				} else {
					log.Warn("Module references unknown page", zap.String("module", spec.Title), zap.String("page", ref))
				}
			case "quiz":
				if quiz, ok := quizzes[ref]; ok {
					module.AddQuiz(quiz)
				} else {
					log.Warn("Module references unknown quiz", zap.String("module", spec.Title), zap.String("quiz", ref))
				}
			case "assignment":
				if assignment, ok := assignments[ref]; ok {
					module.AddAssignment(assignment)
				} else {
					log.Warn("Module references unknown assignment", zap.String("module", spec.Title), zap.String("assignment", ref))
				}
			default:
				log.Warn("Module item has unknown type", zap.String("module", spec.Title), zap.String("type", item.Type), zap.String("id", ref))
			}
		}
		log.Debug("Module added", zap.String("title", module.Title), zap.Int("items", len(module.Items)))
	}
	return nil
}
