package convert

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"ccb/archive"
	"ccb/imscc"
	"ccb/state"
)

var (
	pageTitleRe      = regexp.MustCompile(`(?i)<title>([^<]+)</title>`)
	pageIdentifierRe = regexp.MustCompile(`(?i)<meta\s+name="identifier"\s+content="([^"]+)"`)
)

// Extract is the "extract" command entry point: course package in, editable
// template directory out.
func Extract(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("extract")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input package has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(src), packageExt) {
		log.Warn("Input file does not have the expected extension", zap.String("file", src), zap.String("expected", packageExt))
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")
	if _, err := os.Stat(dst); err == nil && !env.Overwrite {
		return fmt.Errorf("output directory already exists: %s", dst)
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archive", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return extractPackage(ctx, src, dst, log)
}

// extractPackage unpacks the archive to a scratch directory and rebuilds
// the template structure from it.
func extractPackage(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	tmpDir, err := os.MkdirTemp("", "ccb-extract-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	var unpackErrs error
	err = archive.Walk(src, "", func(_ string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.FileHeader.Name
		if env.CodePage != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := env.CodePage.NewDecoder().String(name); err == nil {
				name = n
			} else {
				cp, _ := ianaindex.IANA.Name(env.CodePage)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", cp), zap.String("path", name), zap.Error(err))
			}
		}

		if err := unpackFile(f, filepath.Join(tmpDir, filepath.FromSlash(name))); err != nil {
			log.Error("Unable to unpack file", zap.String("path", name), zap.Error(err))
			unpackErrs = multierr.Append(unpackErrs, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to read package: %w", err)
	}
	if unpackErrs != nil {
		return unpackErrs
	}

	if env.Rpt != nil {
		env.Rpt.Store("imsmanifest.xml", filepath.Join(tmpDir, "imsmanifest.xml"))
	}

	return buildTemplateTree(ctx, tmpDir, dst, log)
}

func unpackFile(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// extractedPage is what we know about one page pulled from the package.
type extractedPage struct {
	Title    string
	Filename string
	CanvasID string
	Content  string
}

// buildTemplateTree converts the unpacked package into the editable
// template layout.
func buildTemplateTree(ctx context.Context, extracted, dst string, log *zap.Logger) error {
	manifest, err := imscc.ReadManifest(filepath.Join(extracted, "imsmanifest.xml"))
	if err != nil {
		return fmt.Errorf("unable to parse package manifest: %w", err)
	}

	settings, err := imscc.ReadCourseSettings(filepath.Join(extracted, "course_settings", "course_settings.xml"))
	if err != nil {
		return fmt.Errorf("unable to parse course settings: %w", err)
	}

	modules, err := imscc.ReadModuleMeta(filepath.Join(extracted, "course_settings", "module_meta.xml"))
	if err != nil {
		return fmt.Errorf("unable to parse module metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(dst, wikiContentDir), 0755); err != nil {
		return err
	}

	if err := writeCourseJSON(manifest, settings, dst); err != nil {
		return err
	}

	pages, filenames, err := readExtractedPages(filepath.Join(extracted, wikiContentDir))
	if err != nil {
		return err
	}
	log.Info("Package parsed",
		zap.Int("resources", len(manifest.Resources)), zap.Int("pages", len(pages)), zap.Int("modules", len(modules)))

	var errs error
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		content := canvasToLocal(page.Content, filenames)
		content = insertPageMeta(content, page.Title)
		path := filepath.Join(dst, wikiContentDir, page.Filename+".html")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			log.Error("Unable to write page", zap.String("page", page.Filename), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		log.Debug("Page extracted", zap.String("title", page.Title), zap.String("file", page.Filename+".html"))
	}

	errs = multierr.Append(errs, copyWebResources(ctx, extracted, dst, log))

	if err := writeModulesJSON(modules, pages, dst, log); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := writeReadme(dst, settings, manifest); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func writeCourseJSON(manifest *imscc.Manifest, settings *imscc.CourseSettings, dst string) error {
	info := courseInfo{
		Title:       settings.Title,
		CourseCode:  settings.CourseCode,
		DefaultView: settings.DefaultView,
		License:     settings.License,
	}
	if info.Title == "" {
		info.Title = manifest.Title
	}
	if info.Title == "" {
		info.Title = titleizeStem(filepath.Base(dst))
	}
	if info.CourseCode == "" {
		info.CourseCode = strings.ToUpper(filepath.Base(dst))
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, "course.json"), data, 0644)
}

// readExtractedPages reads every page of the unpacked package and builds
// the reference map used for link back-conversion: title slugs, package
// identifiers and original file name stems all resolve to the new local
// file name stem.
func readExtractedPages(wikiDir string) ([]*extractedPage, map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(wikiDir, "*.html"))
	if err != nil {
		return nil, nil, err
	}

	var pages []*extractedPage
	filenames := map[string]string{}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		content := string(data)

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title := titleizeStem(stem)
		if m := pageTitleRe.FindStringSubmatch(content); m != nil {
			title = m[1]
		}

		page := &extractedPage{
			Title:    title,
			Filename: slug.Make(title),
			Content:  content,
		}
		if m := pageIdentifierRe.FindStringSubmatch(content); m != nil {
			page.CanvasID = m[1]
		}

		filenames[slug.Make(title)] = page.Filename
		filenames[stem] = page.Filename
		if page.CanvasID != "" {
			filenames[page.CanvasID] = page.Filename
		}
		pages = append(pages, page)
	}
	return pages, filenames, nil
}

func copyWebResources(ctx context.Context, extracted, dst string, log *zap.Logger) error {
	srcDir := filepath.Join(extracted, webResourcesDir)
	if fi, err := os.Stat(srcDir); err != nil || !fi.Mode().IsDir() {
		return nil
	}

	var errs error
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, webResourcesDir, rel)
		if err := copyFile(path, target); err != nil {
			log.Error("Unable to copy resource", zap.String("file", rel), zap.Error(err))
			errs = multierr.Append(errs, err)
			return nil
		}
		log.Debug("Resource copied", zap.String("file", rel))
		return nil
	})
	return multierr.Append(errs, err)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// writeModulesJSON reconstructs modules.json from the module metadata. Only
// page items can reference local template files, and only modules with at
// least one resolved page are written.
func writeModulesJSON(modules []imscc.ModuleMeta, pages []*extractedPage, dst string, log *zap.Logger) error {
	byRef := map[string]*extractedPage{}
	byTitle := map[string]*extractedPage{}
	for _, p := range pages {
		if p.CanvasID != "" {
			byRef[p.CanvasID] = p
		}
		byTitle[p.Title] = p
	}

	type moduleOut struct {
		Title string   `json:"title"`
		Pages []string `json:"pages"`
	}

	var out []moduleOut
	for _, m := range modules {
		entry := moduleOut{Title: m.Title}
		for _, item := range m.Items {
			if item.ContentType != "WikiPage" {
				continue
			}
			page := byRef[item.IdentifierRef]
			if page == nil {
				page = byTitle[item.Title]
			}
			if page == nil {
				log.Warn("Module page not found in package", zap.String("module", m.Title), zap.String("item", item.Title))
				continue
			}
			entry.Pages = append(entry.Pages, page.Filename)
		}
		if len(entry.Pages) > 0 {
			out = append(out, entry)
		}
	}
	if len(out) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{"modules": out}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, "modules.json"), data, 0644)
}

func writeReadme(dst string, settings *imscc.CourseSettings, manifest *imscc.Manifest) error {
	title := settings.Title
	if title == "" {
		title = manifest.Title
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s - Template\n\n", title)
	sb.WriteString(`This template was extracted from a course package and is ready for local editing.

## Structure

- ` + "`wiki_content/`" + ` - HTML pages (edit these locally)
- ` + "`web_resources/`" + ` - Files (PDFs, images, etc.)
- ` + "`course.json`" + ` - Course metadata
- ` + "`modules.json`" + ` - Module organization

## Workflow

1. Edit HTML files in wiki_content/ and add files under web_resources/,
   previewing in a browser (all links work locally).
2. Rebuild the package:

       ccb build .

3. Import the generated .imscc file via the platform course import.

## Links

Local links are converted automatically when building:

    <a href="../web_resources/syllabus.pdf">Syllabus</a>
    <a href="page-name.html">Go to Page</a>

## Page Metadata

Add metadata using HTML comments:

    <!-- CANVAS_META
    title: My Page Title
    home: true
    -->
`)
	return os.WriteFile(filepath.Join(dst, "README.md"), []byte(sb.String()), 0644)
}
