package course

// Module item content types as the import format spells them.
const (
	ContentTypeWikiPage   = "WikiPage"
	ContentTypeAssignment = "Assignment"
	ContentTypeQuiz       = "Quizzes::Quiz"
)

// Module groups course items for sequential presentation.
type Module struct {
	Identifier                string
	Title                     string
	WorkflowState             string
	Position                  int
	RequireSequentialProgress bool
	Locked                    bool
	Items                     []*ModuleItem

	ids *IDSource
}

// ModuleItem links a module entry to the resource it presents.
type ModuleItem struct {
	Identifier    string
	Title         string
	ContentType   string
	IdentifierRef string
	WorkflowState string
	Position      int
	Indent        int
}

// NewModule creates an active module with no items.
func NewModule(ids *IDSource, title string) *Module {
	return &Module{
		Identifier:    ids.Identifier(),
		Title:         title,
		WorkflowState: "active",
		ids:           ids,
	}
}

// AddPage appends a wiki page item.
func (m *Module) AddPage(p *WikiPage) *ModuleItem {
	return m.addItem(p.Title, ContentTypeWikiPage, p.Identifier)
}

// AddAssignment appends an assignment item.
func (m *Module) AddAssignment(a *Assignment) *ModuleItem {
	return m.addItem(a.Title, ContentTypeAssignment, a.Identifier)
}

// AddQuiz appends a quiz item.
func (m *Module) AddQuiz(q *Quiz) *ModuleItem {
	return m.addItem(q.Title, ContentTypeQuiz, q.Identifier)
}

func (m *Module) addItem(title, contentType, ref string) *ModuleItem {
	item := &ModuleItem{
		Identifier:    m.ids.Identifier(),
		Title:         title,
		ContentType:   contentType,
		IdentifierRef: ref,
		WorkflowState: "active",
		Position:      len(m.Items) + 1,
	}
	m.Items = append(m.Items, item)
	return item
}
