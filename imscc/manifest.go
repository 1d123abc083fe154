package imscc

import (
	"archive/zip"
	"time"

	"github.com/beevik/etree"

	"ccb/course"
)

const (
	manifestNS       = "http://www.imsglobal.org/xsd/imsccv1p1/imscp_v1p1"
	lomResourceNS    = "http://ltsc.ieee.org/xsd/imsccv1p1/LOM/resource"
	lomManifestNS    = "http://ltsc.ieee.org/xsd/imsccv1p1/LOM/manifest"
	xsiNS            = "http://www.w3.org/2001/XMLSchema-instance"
	manifestSchemaLoc = manifestNS +
		" http://www.imsglobal.org/profile/cc/ccv1p1/ccv1p1_imscp_v1p2_v1p0.xsd " +
		lomResourceNS +
		" http://www.imsglobal.org/profile/cc/ccv1p1/LOM/ccv1p1_lomresource_v1p0.xsd " +
		lomManifestNS +
		" http://www.imsglobal.org/profile/cc/ccv1p1/LOM/ccv1p1_lommanifest_v1p0.xsd"

	typeWebContent    = "webcontent"
	typeLearningAppRes = "associatedcontent/imscc_xmlv1p1/learning-application-resource"
	typeAssessment    = "imsqti_xmlv1p2/imscc_xmlv1p1/assessment"
)

func writeManifest(zw *zip.Writer, c *course.Course) error {
	return writeXMLToZip(zw, "imsmanifest.xml", manifestDocument(c, time.Now()))
}

// manifestDocument builds imsmanifest.xml. Attribute order follows Canvas
// exports, identifier first on the root element.
func manifestDocument(c *course.Course, exported time.Time) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	manifest := doc.CreateElement("manifest")
	manifest.CreateAttr("identifier", c.Identifier)
	manifest.CreateAttr("xmlns", manifestNS)
	manifest.CreateAttr("xmlns:lom", lomResourceNS)
	manifest.CreateAttr("xmlns:lomimscc", lomManifestNS)
	manifest.CreateAttr("xmlns:xsi", xsiNS)
	manifest.CreateAttr("xsi:schemaLocation", manifestSchemaLoc)

	appendManifestMetadata(manifest, c, exported)
	appendOrganizations(manifest, c)
	appendResources(manifest, c)
	return doc
}

func appendManifestMetadata(manifest *etree.Element, c *course.Course, exported time.Time) {
	metadata := manifest.CreateElement("metadata")
	metadata.CreateElement("schema").SetText("IMS Common Cartridge")
	metadata.CreateElement("schemaversion").SetText("1.1.0")

	lom := metadata.CreateElement("lomimscc:lom")
	lom.CreateElement("lomimscc:general").
		CreateElement("lomimscc:title").
		CreateElement("lomimscc:string").SetText(c.Title)

	lom.CreateElement("lomimscc:lifeCycle").
		CreateElement("lomimscc:contribute").
		CreateElement("lomimscc:date").
		CreateElement("lomimscc:dateTime").SetText(exported.Format("2006-01-02"))

	rights := lom.CreateElement("lomimscc:rights")
	rights.CreateElement("lomimscc:copyrightAndOtherRestrictions").
		CreateElement("lomimscc:value").SetText("yes")
	rights.CreateElement("lomimscc:description").
		CreateElement("lomimscc:string").SetText("Private (Copyrighted) - http://en.wikipedia.org/wiki/Copyright")
}

func appendOrganizations(manifest *etree.Element, c *course.Course) {
	organization := manifest.CreateElement("organizations").CreateElement("organization")
	organization.CreateAttr("identifier", "org_1")
	organization.CreateAttr("structure", "rooted-hierarchy")

	root := organization.CreateElement("item")
	root.CreateAttr("identifier", "LearningModules")

	for _, m := range c.Modules {
		moduleItem := root.CreateElement("item")
		moduleItem.CreateAttr("identifier", m.Identifier)
		moduleItem.CreateElement("title").SetText(m.Title)

		for _, item := range m.Items {
			el := moduleItem.CreateElement("item")
			el.CreateAttr("identifier", item.Identifier)
			el.CreateAttr("identifierref", item.IdentifierRef)
			el.CreateElement("title").SetText(item.Title)
		}
	}
}

func appendResources(manifest *etree.Element, c *course.Course) {
	resources := manifest.CreateElement("resources")

	settings := resources.CreateElement("resource")
	settings.CreateAttr("identifier", c.IDs().Identifier())
	settings.CreateAttr("type", typeLearningAppRes)
	settings.CreateAttr("href", settingsDir+"/canvas_export.txt")
	appendFileRef(settings, settingsDir+"/course_settings.xml")
	appendFileRef(settings, settingsDir+"/files_meta.xml")
	appendFileRef(settings, settingsDir+"/context.xml")
	appendFileRef(settings, settingsDir+"/media_tracks.xml")
	appendFileRef(settings, settingsDir+"/canvas_export.txt")
	if len(c.Modules) > 0 {
		appendFileRef(settings, settingsDir+"/module_meta.xml")
	}
	if len(c.AssignmentGroups) > 0 {
		appendFileRef(settings, settingsDir+"/assignment_groups.xml")
	}
	if len(c.Rubrics) > 0 {
		appendFileRef(settings, settingsDir+"/rubrics.xml")
	}

	for _, p := range c.Pages {
		href := wikiContentDir + "/" + p.Filename()
		res := resources.CreateElement("resource")
		res.CreateAttr("identifier", p.Identifier)
		res.CreateAttr("type", typeWebContent)
		res.CreateAttr("href", href)
		appendFileRef(res, href)
	}

	for _, a := range c.Assignments {
		res := resources.CreateElement("resource")
		res.CreateAttr("identifier", a.Identifier)
		res.CreateAttr("type", typeLearningAppRes)
		res.CreateAttr("href", a.Identifier+"/assignment.html")
		appendFileRef(res, a.Identifier+"/assignment.html")
		appendFileRef(res, a.Identifier+"/assignment_settings.xml")
	}

	for _, q := range c.Quizzes {
		depID := c.IDs().Identifier()

		res := resources.CreateElement("resource")
		res.CreateAttr("identifier", q.Identifier)
		res.CreateAttr("type", typeAssessment)
		appendFileRef(res, q.Identifier+"/assessment_qti.xml")
		res.CreateElement("dependency").CreateAttr("identifierref", depID)

		dep := resources.CreateElement("resource")
		dep.CreateAttr("identifier", depID)
		dep.CreateAttr("type", typeLearningAppRes)
		dep.CreateAttr("href", q.Identifier+"/assessment_meta.xml")
		appendFileRef(dep, q.Identifier+"/assessment_meta.xml")
		appendFileRef(dep, assessmentsDir+"/"+q.Identifier+".xml.qti")
	}

	for _, f := range c.Files {
		res := resources.CreateElement("resource")
		res.CreateAttr("identifier", f.Identifier)
		res.CreateAttr("type", typeWebContent)
		res.CreateAttr("href", f.DestinationPath)
		appendFileRef(res, f.DestinationPath)
	}
}

func appendFileRef(resource *etree.Element, href string) {
	resource.CreateElement("file").CreateAttr("href", href)
}
