package imscc

import (
	"fmt"
	"os"

	"github.com/beevik/etree"
)

// ManifestResource is one manifest resource entry with its file list.
type ManifestResource struct {
	Identifier string
	Type       string
	Href       string
	Files      []string
}

// IsWebContent reports whether the resource is plain web content (wiki
// pages and copied files).
func (r ManifestResource) IsWebContent() bool { return r.Type == typeWebContent }

// IsAssessment reports whether the resource is a QTI assessment.
func (r ManifestResource) IsAssessment() bool { return r.Type == typeAssessment }

// Manifest is the subset of imsmanifest.xml needed for extraction.
type Manifest struct {
	Identifier string
	Title      string
	Resources  []ManifestResource
}

// ReadManifest parses an imsmanifest.xml file.
func ReadManifest(path string) (*Manifest, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("unable to parse manifest: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "manifest" {
		return nil, fmt.Errorf("not a cartridge manifest: %s", path)
	}

	m := &Manifest{Identifier: root.SelectAttrValue("identifier", "")}
	if title := root.FindElement("metadata/lomimscc:lom/lomimscc:general/lomimscc:title/lomimscc:string"); title != nil {
		m.Title = title.Text()
	}

	for _, el := range root.FindElements("resources/resource") {
		res := ManifestResource{
			Identifier: el.SelectAttrValue("identifier", ""),
			Type:       el.SelectAttrValue("type", ""),
			Href:       el.SelectAttrValue("href", ""),
		}
		for _, file := range el.FindElements("file") {
			if href := file.SelectAttrValue("href", ""); href != "" {
				res.Files = append(res.Files, href)
			}
		}
		m.Resources = append(m.Resources, res)
	}
	return m, nil
}

// CourseSettings is the subset of course_settings.xml carried back into a
// template.
type CourseSettings struct {
	Title       string
	CourseCode  string
	DefaultView string
	License     string
}

// ReadCourseSettings parses course_settings/course_settings.xml. A missing
// file is not an error; exports are not required to carry settings.
func ReadCourseSettings(path string) (*CourseSettings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &CourseSettings{}, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("unable to parse course settings: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return &CourseSettings{}, nil
	}

	s := &CourseSettings{}
	for _, el := range root.ChildElements() {
		switch el.Tag {
		case "title":
			s.Title = el.Text()
		case "course_code":
			s.CourseCode = el.Text()
		case "default_view":
			s.DefaultView = el.Text()
		case "license":
			s.License = el.Text()
		}
	}
	return s, nil
}

// ModuleMetaItem is one item of an exported module.
type ModuleMetaItem struct {
	ContentType   string
	IdentifierRef string
	Title         string
}

// ModuleMeta is one exported module with its items in order.
type ModuleMeta struct {
	Title string
	Items []ModuleMetaItem
}

// ReadModuleMeta parses course_settings/module_meta.xml. A missing file
// yields no modules.
func ReadModuleMeta(path string) ([]ModuleMeta, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("unable to parse module meta: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil
	}

	var modules []ModuleMeta
	for _, el := range root.FindElements("module") {
		m := ModuleMeta{Title: el.SelectAttrValue("identifier", "Untitled Module")}
		if title := el.FindElement("title"); title != nil && title.Text() != "" {
			m.Title = title.Text()
		}
		for _, item := range el.FindElements("items/item") {
			mi := ModuleMetaItem{ContentType: "WikiPage"}
			if ct := item.FindElement("content_type"); ct != nil && ct.Text() != "" {
				mi.ContentType = ct.Text()
			}
			if ref := item.FindElement("identifierref"); ref != nil {
				mi.IdentifierRef = ref.Text()
			}
			if title := item.FindElement("title"); title != nil {
				mi.Title = title.Text()
			}
			m.Items = append(m.Items, mi)
		}
		modules = append(modules, m)
	}
	return modules, nil
}
