package course

import (
	"strconv"

	"github.com/beevik/etree"
)

// Namespaces used by the import format.
const (
	canvasNS = "http://canvas.instructure.com/xsd/cccv1p0"
	xsiNS    = "http://www.w3.org/2001/XMLSchema-instance"
	qtiNS    = "http://www.imsglobal.org/xsd/ims_qtiasiv1p2"
)

// newCanvasDocument starts a document whose root carries the platform
// schema attributes, identifier first when one is given.
func newCanvasDocument(root, identifier string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	el := doc.CreateElement(root)
	if identifier != "" {
		el.CreateAttr("identifier", identifier)
	}
	el.CreateAttr("xmlns", canvasNS)
	el.CreateAttr("xmlns:xsi", xsiNS)
	el.CreateAttr("xsi:schemaLocation", canvasNS+" https://canvas.instructure.com/xsd/cccv1p0.xsd")
	return doc, el
}

func setText(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	if text != "" {
		el.SetText(text)
	}
	return el
}

func setBool(parent *etree.Element, tag string, v bool) *etree.Element {
	return setText(parent, tag, strconv.FormatBool(v))
}

func setFloat(parent *etree.Element, tag string, v float64) *etree.Element {
	return setText(parent, tag, formatFloat(v))
}

func setInt(parent *etree.Element, tag string, v int) *etree.Element {
	return setText(parent, tag, strconv.Itoa(v))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
