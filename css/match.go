package css

import (
	"strings"
)

// compound is a single compound selector: optional type name, optional id,
// any number of classes. Attribute selectors are recognized syntactically
// and weigh into specificity, but they never constrain matching.
type compound struct {
	tag     string
	id      string
	classes []string
	attrs   int
}

// step links a compound to the compound on its left in the selector chain.
type step struct {
	sel compound
	// child is true when this compound is joined to its left neighbor
	// with the '>' combinator, false for the descendant combinator.
	child bool
}

// Max returns the greater of the two specificities.
func (s Specificity) Max(o Specificity) Specificity {
	if s.Less(o) {
		return o
	}
	return s
}

// ComputeSpecificity calculates the specificity of a selector. For a
// selector list the result is the maximum over the comma separated
// branches, so every branch of a grouped rule carries the same weight.
func ComputeSpecificity(selector string) Specificity {
	var spec Specificity
	for _, branch := range strings.Split(selector, ",") {
		branch = strings.TrimSpace(branch)
		if branch == "" {
			continue
		}
		spec = spec.Max(branchSpecificity(branch))
	}
	return spec
}

// branchSpecificity counts occurrences per compound token: '#' weighs as an
// id, '.' and '[' weigh as classes, a leading type name weighs as one type.
func branchSpecificity(branch string) Specificity {
	var spec Specificity
	for _, tok := range strings.Fields(strings.ReplaceAll(branch, ">", " ")) {
		spec.IDs += strings.Count(tok, "#")
		spec.Classes += strings.Count(tok, ".") + strings.Count(tok, "[")
		if isTypeName(tok[0]) {
			spec.Types++
		}
	}
	return spec
}

func isTypeName(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Matches reports whether the selector applies to an element given its open
// ancestors, outermost first. A selector list matches when any branch does.
func Matches(selector string, el Element, ancestors []Element) bool {
	for _, branch := range strings.Split(selector, ",") {
		branch = strings.TrimSpace(branch)
		if branch == "" {
			continue
		}
		if matchBranch(parseBranch(branch), el, ancestors) {
			return true
		}
	}
	return false
}

// matchBranch evaluates a selector chain right to left. The rightmost
// compound must match the element itself; the descendant combinator then
// scans the ancestor stack upward for the next compound, while the child
// combinator consumes exactly one ancestor level.
func matchBranch(chain []step, el Element, ancestors []Element) bool {
	if len(chain) == 0 {
		return false
	}

	last := chain[len(chain)-1]
	if !matchCompound(last.sel, el) {
		return false
	}

	idx := len(ancestors) - 1
	for i := len(chain) - 2; i >= 0; i-- {
		st := chain[i]
		if chain[i+1].child {
			if idx < 0 || !matchCompound(st.sel, ancestors[idx]) {
				return false
			}
			idx--
			continue
		}
		for {
			if idx < 0 {
				return false
			}
			if matchCompound(st.sel, ancestors[idx]) {
				idx--
				break
			}
			idx--
		}
	}
	return true
}

func matchCompound(sel compound, el Element) bool {
	// an attribute-only selector has no recognizable structure left after
	// the attribute block is stripped and can never match, even though it
	// still weighs into specificity
	if sel.tag == "" && sel.id == "" && len(sel.classes) == 0 {
		return false
	}
	if sel.tag != "" && sel.tag != el.Tag {
		return false
	}
	if sel.id != "" && sel.id != el.ID {
		return false
	}
	for _, c := range sel.classes {
		if !el.hasClass(c) {
			return false
		}
	}
	return true
}

// parseBranch splits one selector branch into its compound chain. The '>'
// combinator may appear with or without surrounding whitespace.
func parseBranch(branch string) []step {
	branch = strings.ReplaceAll(branch, ">", " > ")

	var (
		chain []step
		child bool
	)
	for _, tok := range strings.Fields(branch) {
		if tok == ">" {
			child = true
			continue
		}
		chain = append(chain, step{sel: parseCompound(tok), child: child})
		child = false
	}
	return chain
}

// parseCompound parses a single compound selector like "div", "#id",
// ".a.b", "p.note" or "a[href]". Unrecognized pieces are ignored.
func parseCompound(tok string) compound {
	var sel compound

	// strip attribute selector blocks, counting them for specificity
	for {
		open := strings.IndexByte(tok, '[')
		if open < 0 {
			break
		}
		shut := strings.IndexByte(tok[open:], ']')
		if shut < 0 {
			tok = tok[:open]
			sel.attrs++
			break
		}
		tok = tok[:open] + tok[open+shut+1:]
		sel.attrs++
	}

	rest := tok
	if i := strings.IndexAny(rest, "#."); i != 0 {
		if i < 0 {
			sel.tag = strings.ToLower(rest)
			return sel
		}
		sel.tag = strings.ToLower(rest[:i])
		rest = rest[i:]
	}

	for rest != "" {
		marker := rest[0]
		rest = rest[1:]
		end := strings.IndexAny(rest, "#.")
		name := rest
		if end >= 0 {
			name = rest[:end]
			rest = rest[end:]
		} else {
			rest = ""
		}
		if name == "" {
			continue
		}
		switch marker {
		case '#':
			sel.id = name
		case '.':
			sel.classes = append(sel.classes, name)
		}
	}
	return sel
}
