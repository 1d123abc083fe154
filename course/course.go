// Package course holds the in-memory model of a course being packaged:
// wiki pages, modules, assignments, rubrics, quizzes and attached files.
// The model is built by the conversion pipeline and consumed by the package
// writer; it performs no I/O of its own.
package course

// Course is the root aggregate. Entities are kept in insertion order, which
// becomes their order in the exported package.
type Course struct {
	Identifier  string
	Title       string
	CourseCode  string
	License     string
	DefaultView string

	Pages            []*WikiPage
	Modules          []*Module
	Assignments      []*Assignment
	AssignmentGroups []*AssignmentGroup
	Rubrics          []*Rubric
	Quizzes          []*Quiz
	Files            []*FileResource

	ids          *IDSource
	defaultGroup *AssignmentGroup
}

// FileResource is a file carried into the package verbatim.
type FileResource struct {
	Identifier      string
	SourcePath      string
	DestinationPath string
	ContentType     string
}

// New creates an empty course. An empty course code falls back to the
// title.
func New(ids *IDSource, title, courseCode string) *Course {
	if courseCode == "" {
		courseCode = title
	}
	return &Course{
		Identifier:  ids.Identifier(),
		Title:       title,
		CourseCode:  courseCode,
		License:     "private",
		DefaultView: "modules",
		ids:         ids,
	}
}

// NewPage creates a wiki page and adds it to the course.
func (c *Course) NewPage(title, content string) *WikiPage {
	page := NewWikiPage(c.ids, title, content)
	c.Pages = append(c.Pages, page)
	return page
}

// NewModule creates a module, assigns its position and adds it to the
// course.
func (c *Course) NewModule(title string) *Module {
	m := NewModule(c.ids, title)
	m.Position = len(c.Modules) + 1
	c.Modules = append(c.Modules, m)
	return m
}

// AddFile registers a file for inclusion. The destination path uses forward
// slashes and is relative to the package root.
func (c *Course) AddFile(sourcePath, destinationPath, contentType string) *FileResource {
	f := &FileResource{
		Identifier:      c.ids.Identifier(),
		SourcePath:      sourcePath,
		DestinationPath: destinationPath,
		ContentType:     contentType,
	}
	c.Files = append(c.Files, f)
	return f
}

// NewAssignmentGroup creates a gradebook group at the next position.
func (c *Course) NewAssignmentGroup(title string, groupWeight float64) *AssignmentGroup {
	g := &AssignmentGroup{
		Identifier:  c.ids.Identifier(),
		Title:       title,
		Position:    len(c.AssignmentGroups) + 1,
		GroupWeight: groupWeight,
	}
	c.AssignmentGroups = append(c.AssignmentGroups, g)
	return g
}

// DefaultAssignmentGroup returns the "Assignments" group, creating it on
// first use.
func (c *Course) DefaultAssignmentGroup() *AssignmentGroup {
	if c.defaultGroup == nil {
		c.defaultGroup = c.NewAssignmentGroup("Assignments", 0)
	}
	return c.defaultGroup
}

// AddAssignment attaches an assignment to a group (the default group when
// nil) and pulls in its rubric if one is attached and not yet registered.
func (c *Course) AddAssignment(a *Assignment, group *AssignmentGroup) {
	if group == nil {
		group = c.DefaultAssignmentGroup()
	}
	a.GroupRef = group.Identifier

	if a.Rubric != nil && !c.hasRubric(a.Rubric) {
		c.AddRubric(a.Rubric)
	}
	c.Assignments = append(c.Assignments, a)
}

// AddRubric registers a rubric with the course.
func (c *Course) AddRubric(r *Rubric) {
	c.Rubrics = append(c.Rubrics, r)
}

// AddQuiz attaches a quiz to a group (the default group when nil).
func (c *Course) AddQuiz(q *Quiz, group *AssignmentGroup) {
	if group == nil {
		group = c.DefaultAssignmentGroup()
	}
	q.GroupRef = group.Identifier
	c.Quizzes = append(c.Quizzes, q)
}

// FrontPage returns the page marked as the course home page, or nil.
func (c *Course) FrontPage() *WikiPage {
	for _, p := range c.Pages {
		if p.FrontPage {
			return p
		}
	}
	return nil
}

// IDs exposes the course identifier source so collaborating writers mint
// identifiers from the same stream.
func (c *Course) IDs() *IDSource {
	return c.ids
}

func (c *Course) hasRubric(r *Rubric) bool {
	for _, have := range c.Rubrics {
		if have == r {
			return true
		}
	}
	return false
}
