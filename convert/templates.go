package convert

import (
	"bytes"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"ccb/config"
	"ccb/course"
)

// Values is a struct that holds variables we make available for template
// expansion.
type Values struct {
	Context     string
	Title       string
	CourseCode  string
	DefaultView string
	License     string
	Pages       int
	Modules     int
	Assignments int
	Quizzes     int
	Files       int
}

func expandTemplate(c *course.Course, name config.TemplateFieldName, field string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:     string(name),
		Title:       c.Title,
		CourseCode:  c.CourseCode,
		DefaultView: c.DefaultView,
		License:     c.License,
		Pages:       len(c.Pages),
		Modules:     len(c.Modules),
		Assignments: len(c.Assignments),
		Quizzes:     len(c.Quizzes),
		Files:       len(c.Files),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
