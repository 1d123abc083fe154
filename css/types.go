// Package css implements the stylesheet handling used during page
// conversion: a best-effort flat stylesheet parser and a single-pass
// cascade engine which resolves matching rules per element and rewrites
// the document with computed styles flattened into style attributes.
package css

import (
	"strings"

	"github.com/elliotchance/orderedmap/v3"
)

// Declarations is an ordered property->value mapping. Source order is
// preserved; setting an existing property keeps its original position and
// replaces the value, matching cascade overwrite semantics.
type Declarations = orderedmap.OrderedMap[string, string]

// NewDeclarations creates an empty ordered declaration map.
func NewDeclarations() *Declarations {
	return orderedmap.NewOrderedMap[string, string]()
}

// Rule is a single stylesheet rule: the selector list exactly as written in
// the source (outer whitespace trimmed, not normalized) and its declaration
// block. Rules are immutable once parsed.
type Rule struct {
	Selector     string
	Declarations *Declarations
}

// Specificity is the standard 3-component selector weight: ID selectors,
// class and attribute selectors, type selectors. Ordering is lexicographic.
type Specificity struct {
	IDs     int
	Classes int
	Types   int
}

// Less reports whether s sorts before o in cascade order (lower weight
// loses to higher weight).
func (s Specificity) Less(o Specificity) bool {
	if s.IDs != o.IDs {
		return s.IDs < o.IDs
	}
	if s.Classes != o.Classes {
		return s.Classes < o.Classes
	}
	return s.Types < o.Types
}

// Element is the minimal snapshot of an open tag needed for selector
// matching: tag name, id and class list.
type Element struct {
	Tag     string
	ID      string
	Classes []string
}

func (e Element) hasClass(name string) bool {
	for _, c := range e.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// parseDeclarationList splits a raw declaration block (the text between
// braces, or an inline style attribute value) into ordered declarations.
// Entries without a colon are silently dropped.
func parseDeclarationList(text string) *Declarations {
	decls := NewDeclarations()
	for _, chunk := range strings.Split(text, ";") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		prop, value, found := strings.Cut(chunk, ":")
		if !found {
			continue
		}
		prop, value = strings.TrimSpace(prop), strings.TrimSpace(value)
		if prop == "" || value == "" {
			continue
		}
		decls.Set(prop, value)
	}
	return decls
}

// serializeDeclarations renders declarations back to style attribute form:
// "prop: value; prop: value" without a trailing separator.
func serializeDeclarations(decls *Declarations) string {
	var sb strings.Builder
	for el := decls.Front(); el != nil; el = el.Next() {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(el.Key)
		sb.WriteString(": ")
		sb.WriteString(el.Value)
	}
	return sb.String()
}
