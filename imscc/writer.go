// Package imscc serializes a course model into an IMS Common Cartridge
// package and reads existing packages back for extraction.
package imscc

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"ccb/course"
)

const (
	settingsDir    = "course_settings"
	wikiContentDir = "wiki_content"
	assessmentsDir = "non_cc_assessments"

	// Canvas ships this joke in every export.
	canvasExportText = "Q: What did the canvas say to the students?\nA: I've got you covered!"
)

// GenerateOptions controls package assembly.
type GenerateOptions struct {
	// WorkDir receives the intermediate archive before it is finalized at
	// the output path. When empty a scratch directory is created for the
	// duration of the call.
	WorkDir string
	// FixZip rewrites the archive without data descriptors for importers
	// that choke on them.
	FixZip bool
}

// Generate creates the .imscc output file.
func Generate(ctx context.Context, c *course.Course, outputPath string, opts GenerateOptions, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info("Generating package", zap.String("output", outputPath),
		zap.Int("pages", len(c.Pages)),
		zap.Int("assignments", len(c.Assignments)),
		zap.Int("quizzes", len(c.Quizzes)),
		zap.Int("files", len(c.Files)))

	workDir := opts.WorkDir
	if workDir == "" {
		var err error
		if workDir, err = os.MkdirTemp("", "ccb-package-"); err != nil {
			return fmt.Errorf("unable to create scratch directory: %w", err)
		}
		defer os.RemoveAll(workDir)
	}
	_, tmpName := filepath.Split(outputPath)
	tmpName = filepath.Join(workDir, tmpName)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	f, err := os.Create(tmpName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	if err := writeManifest(zw, c); err != nil {
		return fmt.Errorf("unable to write manifest: %w", err)
	}

	if err := writeCourseSettings(zw, c); err != nil {
		return fmt.Errorf("unable to write course settings: %w", err)
	}

	for _, a := range c.Assignments {
		if err := writeAssignment(zw, a); err != nil {
			return fmt.Errorf("unable to write assignment %s: %w", a.Identifier, err)
		}
	}

	for _, q := range c.Quizzes {
		if err := writeQuiz(zw, q); err != nil {
			return fmt.Errorf("unable to write quiz %s: %w", q.Identifier, err)
		}
	}
	// Keep the directory present in the archive even without quizzes.
	if err := writeDataToZip(zw, assessmentsDir+"/.keep", nil); err != nil {
		return fmt.Errorf("unable to write keep file: %w", err)
	}

	for _, p := range c.Pages {
		if err := writeDataToZip(zw, wikiContentDir+"/"+p.Filename(), []byte(p.HTML())); err != nil {
			return fmt.Errorf("unable to write page %s: %w", p.Slug(), err)
		}
	}

	for _, res := range c.Files {
		if err := copyFileToZip(zw, res); err != nil {
			return fmt.Errorf("unable to write resource %s: %w", res.DestinationPath, err)
		}
	}

	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}
	// clean temporary file
	defer os.Remove(tmpName)

	if opts.FixZip {
		return copyZipWithoutDataDescriptors(tmpName, outputPath)
	}
	return copyFile(tmpName, outputPath)
}

func writeCourseSettings(zw *zip.Writer, c *course.Course) error {
	if err := writeXMLToZip(zw, settingsDir+"/course_settings.xml", settingsDocument(c)); err != nil {
		return err
	}
	if err := writeXMLToZip(zw, settingsDir+"/files_meta.xml", filesMetaDocument(c)); err != nil {
		return err
	}
	if err := writeXMLToZip(zw, settingsDir+"/context.xml", contextDocument(c)); err != nil {
		return err
	}
	if err := writeXMLToZip(zw, settingsDir+"/media_tracks.xml", mediaTracksDocument()); err != nil {
		return err
	}
	if err := writeDataToZip(zw, settingsDir+"/canvas_export.txt", []byte(canvasExportText)); err != nil {
		return err
	}

	if len(c.Modules) > 0 {
		if err := writeXMLToZip(zw, settingsDir+"/module_meta.xml", moduleMetaDocument(c)); err != nil {
			return err
		}
	}
	if len(c.AssignmentGroups) > 0 {
		if err := writeXMLToZip(zw, settingsDir+"/assignment_groups.xml", assignmentGroupsDocument(c)); err != nil {
			return err
		}
	}
	if len(c.Rubrics) > 0 {
		if err := writeXMLToZip(zw, settingsDir+"/rubrics.xml", rubricsDocument(c)); err != nil {
			return err
		}
	}
	return nil
}

func writeAssignment(zw *zip.Writer, a *course.Assignment) error {
	if err := writeDataToZip(zw, a.Identifier+"/assignment.html", []byte(a.HTML())); err != nil {
		return err
	}
	return writeXMLToZip(zw, a.Identifier+"/assignment_settings.xml", a.SettingsDocument())
}

func writeQuiz(zw *zip.Writer, q *course.Quiz) error {
	if err := writeXMLToZip(zw, q.Identifier+"/assessment_meta.xml", q.MetaDocument()); err != nil {
		return err
	}
	if err := writeXMLToZip(zw, q.Identifier+"/assessment_qti.xml", q.ShellDocument()); err != nil {
		return err
	}
	return writeXMLToZip(zw, assessmentsDir+"/"+q.Identifier+".xml.qti", q.QTIDocument())
}

func copyFileToZip(zw *zip.Writer, res *course.FileResource) error {
	src, err := os.Open(res.SourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(res.DestinationPath)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
