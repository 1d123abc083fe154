package imscc

import (
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"ccb/course"
)

const (
	canvasNS        = "http://canvas.instructure.com/xsd/cccv1p0"
	canvasSchemaLoc = canvasNS + " https://canvas.instructure.com/xsd/cccv1p0.xsd"
)

// newCanvasDocument starts a Canvas settings document. When identifier is
// not empty it goes first on the root element, the way Canvas writes it.
func newCanvasDocument(tag, identifier string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement(tag)
	if identifier != "" {
		root.CreateAttr("identifier", identifier)
	}
	root.CreateAttr("xmlns", canvasNS)
	root.CreateAttr("xmlns:xsi", xsiNS)
	root.CreateAttr("xsi:schemaLocation", canvasSchemaLoc)
	return doc, root
}

func settingsDocument(c *course.Course) *etree.Document {
	doc, root := newCanvasDocument("course", c.Identifier)

	root.CreateElement("title").SetText(c.Title)
	root.CreateElement("course_code").SetText(c.CourseCode)
	root.CreateElement("start_at")
	root.CreateElement("conclude_at")
	for _, flag := range []struct {
		tag   string
		value string
	}{
		{"is_public", "false"},
		{"is_public_to_auth_users", "false"},
		{"allow_student_wiki_edits", "false"},
		{"allow_student_forum_attachments", "false"},
		{"lock_all_announcements", "false"},
		{"default_wiki_editing_roles", "teachers"},
		{"allow_student_organized_groups", "false"},
		{"default_view", c.DefaultView},
		{"open_enrollment", "false"},
		{"filter_speed_grader_by_student_group", "true"},
		{"self_enrollment", "false"},
		{"license", c.License},
		{"indexed", "false"},
		{"hide_final_grade", "false"},
		{"hide_distribution_graphs", "false"},
		{"allow_student_discussion_topics", "false"},
		{"allow_student_discussion_editing", "false"},
		{"show_announcements_on_home_page", "false"},
		{"home_page_announcement_limit", "3"},
		{"usage_rights_required", "false"},
		{"restrict_student_future_view", "true"},
		{"restrict_student_past_view", "false"},
		{"restrict_enrollments_to_course_dates", "false"},
		{"homeroom_course", "false"},
		{"horizon_course", "false"},
		{"conditional_release", "false"},
		{"content_library", "false"},
		{"grading_standard_enabled", "false"},
		{"storage_quota", "5000000000"},
	} {
		root.CreateElement(flag.tag).SetText(flag.value)
	}
	root.CreateElement("overridden_course_visibility")
	root.CreateElement("root_account_uuid").SetText(c.IDs().Hex())
	root.CreateElement("default_post_policy").CreateElement("post_manually").SetText("false")
	root.CreateElement("enable_course_paces").SetText("false")
	return doc
}

func moduleMetaDocument(c *course.Course) *etree.Document {
	doc, root := newCanvasDocument("modules", "")

	for _, m := range c.Modules {
		el := root.CreateElement("module")
		el.CreateAttr("identifier", m.Identifier)
		el.CreateElement("title").SetText(m.Title)
		el.CreateElement("workflow_state").SetText(m.WorkflowState)
		el.CreateElement("position").SetText(strconv.Itoa(m.Position))
		el.CreateElement("require_sequential_progress").SetText(strconv.FormatBool(m.RequireSequentialProgress))
		el.CreateElement("locked").SetText(strconv.FormatBool(m.Locked))

		items := el.CreateElement("items")
		for _, item := range m.Items {
			ie := items.CreateElement("item")
			ie.CreateAttr("identifier", item.Identifier)
			ie.CreateElement("content_type").SetText(item.ContentType)
			ie.CreateElement("workflow_state").SetText(item.WorkflowState)
			ie.CreateElement("title").SetText(item.Title)
			ie.CreateElement("identifierref").SetText(item.IdentifierRef)
			ie.CreateElement("position").SetText(strconv.Itoa(item.Position))
			ie.CreateElement("new_tab")
			ie.CreateElement("indent").SetText(strconv.Itoa(item.Indent))
			ie.CreateElement("link_settings_json").SetText("null")
		}
	}
	return doc
}

func assignmentGroupsDocument(c *course.Course) *etree.Document {
	doc, root := newCanvasDocument("assignmentGroups", "")
	for _, g := range c.AssignmentGroups {
		g.AppendXML(root)
	}
	return doc
}

func rubricsDocument(c *course.Course) *etree.Document {
	doc, root := newCanvasDocument("rubrics", "")
	for _, r := range c.Rubrics {
		r.AppendXML(root)
	}
	return doc
}

// filesMetaDocument lists the folder structure under web_resources so the
// importer recreates it.
func filesMetaDocument(c *course.Course) *etree.Document {
	doc, root := newCanvasDocument("fileMeta", "")

	folders := make(map[string]struct{})
	for _, f := range c.Files {
		parts := strings.Split(f.DestinationPath, "/")
		// Skip the web_resources prefix and the filename itself.
		for i := 2; i < len(parts); i++ {
			folders[strings.Join(parts[1:i], "/")] = struct{}{}
		}
	}
	if len(folders) == 0 {
		return doc
	}

	sorted := make([]string, 0, len(folders))
	for folder := range folders {
		sorted = append(sorted, folder)
	}
	sort.Strings(sorted)

	parent := root.CreateElement("folders")
	for _, folder := range sorted {
		el := parent.CreateElement("folder")
		el.CreateAttr("path", folder)
		el.CreateElement("hidden").SetText("false")
	}
	return doc
}

func contextDocument(c *course.Course) *etree.Document {
	doc, root := newCanvasDocument("context_info", "")
	root.CreateElement("course_name").SetText(c.Title)
	return doc
}

func mediaTracksDocument() *etree.Document {
	doc, _ := newCanvasDocument("media_tracks", "")
	return doc
}
